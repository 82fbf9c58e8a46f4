// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

type serverFlags struct {
	URL string
}

func (flags *serverFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&flags.URL, "server", "", "server URL")
}

func TestBindFlagsDefaults(t *testing.T) {
	type params struct {
		Name    string        `flag:"name" default:"board"`
		Yes     bool          `flag:"yes,y" default:"true"`
		Limit   int           `flag:"limit" default:"50"`
		Project int64         `flag:"project" default:"7"`
		Wait    time.Duration `flag:"wait" default:"400ms"`
		Labels  []string      `flag:"label" default:"a,b"`
		ignored string
	}
	var p params
	if err := FlagsFromParams("test", &p).Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Name != "board" || !p.Yes || p.Limit != 50 || p.Project != 7 || p.Wait != 400*time.Millisecond {
		t.Errorf("defaults = %+v", p)
	}
	if strings.Join(p.Labels, ",") != "a,b" {
		t.Errorf("Labels = %v, want [a b]", p.Labels)
	}
	_ = p.ignored
}

func TestBindFlagsEmbeddedAndBinder(t *testing.T) {
	type params struct {
		JSONOutput
		Server serverFlags
	}
	var p params
	flagSet := FlagsFromParams("test", &p)
	if err := flagSet.Parse([]string{"--json", "--server", "http://api.test"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.OutputJSON {
		t.Error("OutputJSON = false, want true")
	}
	if p.Server.URL != "http://api.test" {
		t.Errorf("Server.URL = %q, want %q", p.Server.URL, "http://api.test")
	}
}

func TestBindFlagsRejectsBadInput(t *testing.T) {
	type badDefault struct {
		Limit int `flag:"limit" default:"many"`
	}
	type badType struct {
		Ratio float32 `flag:"ratio"`
	}
	tests := []struct {
		name   string
		params any
	}{
		{"not a pointer", badDefault{}},
		{"bad default", &badDefault{}},
		{"unsupported type", &badType{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := BindFlags(test.params, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
				t.Error("BindFlags succeeded, want error")
			}
		})
	}
}
