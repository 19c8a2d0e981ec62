package error_notificator

import "context"

type Service struct {
	infra Notificator
}

func NewService(infra Notificator) *Service {
	return &Service{infra: infra}
}

// Notify sends in the background; delivery errors are logged by the infra.
func (s *Service) Notify(ctx context.Context, err error, details string) error {
	go func() {
		_ = s.infra.Notify(context.WithoutCancel(ctx), err, details)
	}()
	return nil
}
