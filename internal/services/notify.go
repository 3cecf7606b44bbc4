package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stocksentry/stocksentry/internal/config"
	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stocksentry/stocksentry/pkg/logger"
	"gorm.io/gorm"
)

// NotifyResult summarizes one notification dispatch
type NotifyResult struct {
	AlertCount int `json:"alert_count"`
	Endpoints  int `json:"endpoints"`
	Failed     int `json:"failed"`
}

// NotifyService pushes medium-and-above active alerts to the configured
// downstream endpoints. Per-endpoint failures are logged, never fatal.
type NotifyService struct {
	client    *resty.Client
	db        *gorm.DB
	endpoints []config.EndpointConfig
}

// NewNotifyService creates a new notify service
func NewNotifyService(db *gorm.DB) *NotifyService {
	return &NotifyService{
		client: resty.New().SetTimeout(10 * time.Second),
		db:     db,
	}
}

// SetEndpoints sets the downstream endpoint configuration
func (s *NotifyService) SetEndpoints(endpoints []config.EndpointConfig) {
	s.endpoints = endpoints
}

// NotifyAlerts sends a digest of ACTIVE alerts at medium severity or above
// to every active endpoint.
func (s *NotifyService) NotifyAlerts(ctx context.Context) (*NotifyResult, error) {
	var alerts []models.ProductAlert
	err := s.db.
		Where("status = ? AND level >= ?", models.AlertStatusActive, models.LevelMedium).
		Order("level DESC, updated_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}

	result := &NotifyResult{AlertCount: len(alerts)}
	if len(alerts) == 0 {
		return result, nil
	}

	skuNames, err := s.skuNames(alerts)
	if err != nil {
		return nil, err
	}
	message := s.formatDigest(alerts, skuNames)

	for _, endpoint := range s.endpoints {
		if !endpoint.IsActive {
			continue
		}
		result.Endpoints++
		if err := s.sendToEndpoint(ctx, endpoint, message, alerts); err != nil {
			logger.Log.Error().Err(err).Str("endpoint", endpoint.Name).Msg("notification failed")
			result.Failed++
		}
	}
	return result, nil
}

func (s *NotifyService) skuNames(alerts []models.ProductAlert) (map[uint]string, error) {
	ids := make([]uint, 0, len(alerts))
	for _, alert := range alerts {
		ids = append(ids, alert.SkuID)
	}

	var skus []models.TrackedSku
	if err := s.db.Where("id IN ?", ids).Find(&skus).Error; err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(skus))
	for _, sku := range skus {
		names[sku.ID] = sku.SkuCode
	}
	return names, nil
}

func (s *NotifyService) sendToEndpoint(ctx context.Context, endpoint config.EndpointConfig, message string, alerts []models.ProductAlert) error {
	switch endpoint.Type {
	case "telegram":
		return s.sendToTelegram(ctx, endpoint, message)
	case "webhook":
		return s.sendToWebhook(ctx, endpoint, alerts)
	default:
		return fmt.Errorf("unsupported endpoint type: %s", endpoint.Type)
	}
}

func (s *NotifyService) sendToTelegram(ctx context.Context, endpoint config.EndpointConfig, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", endpoint.Token)
	payload := map[string]interface{}{
		"chat_id":    endpoint.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)

	if err != nil {
		return fmt.Errorf("telegram API request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *NotifyService) sendToWebhook(ctx context.Context, endpoint config.EndpointConfig, alerts []models.ProductAlert) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{"alerts": alerts}).
		Post(endpoint.URL)

	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *NotifyService) formatDigest(alerts []models.ProductAlert, skuNames map[uint]string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Consumption alerts (%d)\n\n", len(alerts)))
	for _, alert := range alerts {
		name := skuNames[alert.SkuID]
		if name == "" {
			name = fmt.Sprintf("sku #%d", alert.SkuID)
		}
		sb.WriteString(fmt.Sprintf("L%d %s region %s", alert.Level, name, alert.RegionID))
		if details, err := alert.ParseDetails(); err == nil {
			sb.WriteString(fmt.Sprintf(": %.1f/day over %.1f days", details.DailyConsumption, details.SpanDays))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
