package service

import (
	"context"
	"strings"

	"stock-price-alert/internal/entity"
	"stock-price-alert/internal/monitor/dto"
	"stock-price-alert/internal/monitor/repository"
	"stock-price-alert/pkg/logger"
)

// AlertService manages user-facing alert operations shared by the CLI and
// the HTTP API.
type AlertService interface {
	List(ctx context.Context, param dto.ListAlertsParam) ([]entity.Alert, error)
	Get(ctx context.Context, id string) (*entity.Alert, error)
	Create(ctx context.Context, req dto.CreateAlertRequest) (*entity.Alert, error)
	Update(ctx context.Context, id string, req dto.UpdateAlertRequest) (*entity.Alert, error)
	Remove(ctx context.Context, id string) error
	Enable(ctx context.Context, id string) (*entity.Alert, error)
	Disable(ctx context.Context, id string) (*entity.Alert, error)
}

type alertService struct {
	repo repository.AlertRepository
	log  *logger.Logger
}

// NewAlertService creates a new AlertService.
func NewAlertService(repo repository.AlertRepository, log *logger.Logger) AlertService {
	return &alertService{repo: repo, log: log}
}

func (s *alertService) List(ctx context.Context, param dto.ListAlertsParam) ([]entity.Alert, error) {
	var status entity.Status
	if param.Status != "" && !strings.EqualFold(param.Status, "all") {
		st, err := entity.ParseStatus(param.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}
	ticker := strings.ToUpper(strings.TrimSpace(param.Ticker))

	alerts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Alert, 0, len(alerts))
	for _, a := range alerts {
		if status != "" && a.Status != status {
			continue
		}
		if ticker != "" && a.Ticker != ticker {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *alertService) Get(ctx context.Context, id string) (*entity.Alert, error) {
	return s.repo.Get(ctx, id)
}

func (s *alertService) Create(ctx context.Context, req dto.CreateAlertRequest) (*entity.Alert, error) {
	oneTime := true
	if req.OneTime != nil {
		oneTime = *req.OneTime
	}
	alert, err := entity.NewAlert(entity.AlertParams{
		Ticker:      req.Ticker,
		TargetPrice: req.TargetPrice,
		Direction:   req.AlertType,
		OneTime:     oneTime,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, *alert); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "Created alert",
		logger.StringField("alert_id", alert.ID),
		logger.StringField("ticker", alert.Ticker),
		logger.Float64Field("target_price", alert.TargetPrice),
		logger.StringField("alert_type", string(alert.Direction)))
	return alert, nil
}

func (s *alertService) Update(ctx context.Context, id string, req dto.UpdateAlertRequest) (*entity.Alert, error) {
	alert, err := s.repo.Modify(ctx, id, func(a *entity.Alert) error {
		return a.Apply(entity.AlertChanges{
			TargetPrice: req.TargetPrice,
			Direction:   req.AlertType,
			OneTime:     req.OneTime,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "Updated alert", logger.StringField("alert_id", id))
	return alert, nil
}

func (s *alertService) Remove(ctx context.Context, id string) error {
	removed, err := s.repo.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return entity.ErrNotFound
	}
	s.log.InfoContext(ctx, "Removed alert", logger.StringField("alert_id", id))
	return nil
}

func (s *alertService) Enable(ctx context.Context, id string) (*entity.Alert, error) {
	return s.repo.Modify(ctx, id, func(a *entity.Alert) error {
		a.Enable()
		return nil
	})
}

func (s *alertService) Disable(ctx context.Context, id string) (*entity.Alert, error) {
	return s.repo.Modify(ctx, id, func(a *entity.Alert) error {
		a.Disable()
		return nil
	})
}
