package aggregate

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseTargetName(t *testing.T) {
	c := qt.New(t)

	for name, want := range map[string]Group{
		"perf_zip_layers_Python39_1769": {Strategy: "perf_zip_layers_Python39", Runtime: "Python39", Memory: 1769},
		"perf_zip_Python39_1024":        {Strategy: "perf_zip_Python39", Runtime: "Python39", Memory: 1024},
		"perf_image_go1_10240":          {Strategy: "perf_image_go1", Runtime: "go1", Memory: 10240},
	} {
		got, err := ParseTargetName(name)
		c.Assert(err, qt.IsNil, qt.Commentf(name))
		c.Assert(*got, qt.Equals, want)
		c.Assert(got.String(), qt.Equals, name)
	}
}

func TestParseTargetNameRejectsMalformed(t *testing.T) {
	c := qt.New(t)

	for name, msg := range map[string]string{
		"perf":                  `target "perf" does not end in _<memory>`,
		"perf_":                 `target "perf_" does not end in _<memory>`,
		"_1024":                 `target "_1024" does not end in _<memory>`,
		"perf_zip_Python39_big": `target "perf_zip_Python39_big": memory suffix "big" is not numeric`,
		"perf_zip_Python39_-1":  `target "perf_zip_Python39_-1": memory suffix "-1" is not numeric`,
		"perf_zip_Python39_0":   `target "perf_zip_Python39_0": invalid memory suffix "0"`,
		"perf_1024":             `target "perf_1024" has no runtime segment before the memory suffix`,
		"perf__1024":            `target "perf__1024" has no runtime segment before the memory suffix`,
	} {
		_, err := ParseTargetName(name)
		c.Assert(err, qt.ErrorMatches, msg, qt.Commentf(name))
	}
}
