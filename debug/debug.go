package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Bind   bool
	Assign bool
	Decode bool
}

var d *debug

func init() {
	d = &debug{}
	d.Bind = boolEnv("HYDRATE_DEBUG_BIND")
	d.Assign = boolEnv("HYDRATE_DEBUG_ASSIGN")
	d.Decode = boolEnv("HYDRATE_DEBUG_DECODE")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Bind() bool {
	return d.Bind
}
func Assign() bool {
	return d.Assign
}
func Decode() bool {
	return d.Decode
}
