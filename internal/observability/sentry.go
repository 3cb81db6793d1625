package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry is a no-op without a DSN so local runs stay quiet. Every event
// carries a service tag so shared Sentry projects can tell the emitters apart.
func InitSentry(dsn, environment, service string) error {
	if dsn == "" {
		return nil
	}
	if environment == "" {
		environment = "development"
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	}); err != nil {
		return err
	}

	if service != "" {
		sentry.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("service", service)
		})
	}

	return nil
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
