package cmd

import (
	"testing"

	"github.com/gitgoal/gitgoal/internal/errors"
)

func TestCommandSurface(t *testing.T) {
	want := []string{"observe", "plan", "run", "diagnose", "watch", "merge-driver"}
	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestExitError_CarriesCode(t *testing.T) {
	err := &exitError{code: 3, err: errors.NewNoPlan(errors.ReasonUnreachable, "")}

	var exit *exitError
	if !errAs(err, &exit) {
		t.Fatal("errAs should match *exitError")
	}
	if exit.code != 3 {
		t.Errorf("code = %d, want 3", exit.code)
	}
	if exit.Error() == "" {
		t.Error("message must not be empty")
	}
}
