package hq

import (
	"fmt"

	"github.com/kaz/kaltstart/benchmark/coldstart"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// ActionEnsureCold succeeds even when some targets could not be updated;
// those are logged.
func ActionEnsureCold(context *cli.Context) error {
	s, err := readConfig(context)
	if err != nil {
		return fmt.Errorf("readConfig failed: %w", err)
	}
	defer s.cancel()

	forcer := coldstart.NewForcer(newClient(s.aws), s.conf.Filter(), s.conf.ForcerKey, context.App.Writer)
	results, err := forcer.Force(s.ctx)
	if err != nil {
		return fmt.Errorf("Forcer.Force failed: %w", err)
	}

	failed := coldstart.Failed(results)
	for _, r := range failed {
		log.WithField("target", r.Target).Errorf("not forced cold: %v", r.Err)
	}
	log.Infof("%d of %d targets forced cold", len(results)-len(failed), len(results))
	return nil
}
