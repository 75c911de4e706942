package config

import (
	"strconv"

	"github.com/dustin/go-humanize"
)

// optionalInt is a pflag.Value for an integer flag whose absence matters.
type optionalInt struct{ p **int64 }

func (o optionalInt) String() string {
	if *o.p == nil {
		return ""
	}
	return strconv.FormatInt(**o.p, 10)
}

func (o optionalInt) Set(s string) error {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*o.p = &v
	return nil
}

func (o optionalInt) Type() string { return "int" }

// byteSize is a pflag.Value accepting human sizes such as "24GiB" or "512MB".
type byteSize struct{ p *uint64 }

func (b byteSize) String() string { return humanize.IBytes(*b.p) }

func (b byteSize) Set(s string) error {
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return err
	}
	*b.p = v
	return nil
}

func (b byteSize) Type() string { return "size" }
