package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerly/compliance-api/internal/cache"
	"github.com/ledgerly/compliance-api/internal/database"
	"github.com/ledgerly/compliance-api/internal/models"
	"github.com/ledgerly/compliance-api/internal/services/ai"
	"github.com/ledgerly/compliance-api/internal/services/mail"
)

// Deadline scan defaults.
const (
	DefaultScanInterval = time.Hour
	DeadlineWindowDays  = 7
	scanTimeout         = 2 * time.Minute
)

// DeadlineMonitor periodically marks overdue compliance items, runs
// the AI risk assessment over upcoming deadlines and sends reminder
// mail for items due soon
type DeadlineMonitor struct {
	compliances database.ComplianceRepositoryInterface
	clients     *database.ClientRepository
	provider    ai.Provider
	cache       *cache.Cache
	mailer      *mail.Mailer
	interval    time.Duration
	logger      *zap.Logger
}

// NewDeadlineMonitor creates a deadline monitor. cache and mailer may
// be nil; caching and reminders are then skipped.
func NewDeadlineMonitor(compliances database.ComplianceRepositoryInterface, clients *database.ClientRepository, provider ai.Provider, cacheClient *cache.Cache, mailer *mail.Mailer, interval time.Duration, logger *zap.Logger) *DeadlineMonitor {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &DeadlineMonitor{
		compliances: compliances,
		clients:     clients,
		provider:    provider,
		cache:       cacheClient,
		mailer:      mailer,
		interval:    interval,
		logger:      logger,
	}
}

// Start runs the scan loop until the context is cancelled. A scan
// runs immediately on start and then on every interval tick.
func (m *DeadlineMonitor) Start(ctx context.Context) error {
	m.logger.Info("deadline_monitor_started", zap.Duration("interval", m.interval))

	m.runScan(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("deadline_monitor_stopped")
			return ctx.Err()
		case <-ticker.C:
			m.runScan(ctx)
		}
	}
}

func (m *DeadlineMonitor) runScan(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	if err := m.Scan(scanCtx); err != nil {
		m.logger.Error("deadline_scan_failed", zap.Error(err))
	}
}

// Scan performs one pass over compliance deadlines
func (m *DeadlineMonitor) Scan(ctx context.Context) error {
	now := time.Now()

	marked, err := m.compliances.MarkOverdue(ctx, now)
	if err != nil {
		return err
	}
	if marked > 0 {
		m.logger.Info("compliance_items_marked_overdue", zap.Int64("count", marked))
	}

	due, err := m.compliances.ListDueWithin(ctx, now.AddDate(0, 0, DeadlineWindowDays))
	if err != nil {
		return err
	}

	deadlines := make([]ai.DeadlineSummary, 0, len(due))
	for _, item := range due {
		deadlines = append(deadlines, ai.DeadlineSummary{
			ClientID: item.ClientID,
			Name:     item.Name,
			Type:     string(item.Type),
			DueDate:  item.DueDate,
			Status:   string(item.Status),
		})
	}

	snapshot := map[string]any{
		"upcoming_deadlines": deadlines,
		"marked_overdue":     marked,
		"scanned_at":         now.UTC().Format(time.RFC3339),
	}

	if len(deadlines) > 0 {
		result, err := m.provider.MonitorCompliance(ctx, deadlines)
		if err != nil {
			m.logger.Warn("risk_assessment_failed", zap.Error(err))
		} else {
			snapshot["alerts"] = result.Alerts
			snapshot["risk_assessment"] = result.RiskLevel
			snapshot["recommendations"] = result.Recommendations
		}
	}

	if m.cache != nil {
		if err := m.cache.SetJSON(ctx, cache.KeyComplianceDeadlines, snapshot, cache.DefaultTTL); err != nil {
			m.logger.Warn("deadline_cache_failed", zap.Error(err))
		}
	}

	if m.mailer != nil {
		m.sendReminders(ctx, due)
	}

	m.logger.Info("deadline_scan_completed",
		zap.Int("upcoming", len(deadlines)),
		zap.Int64("marked_overdue", marked))

	return nil
}

// sendReminders mails a reminder to each client with an upcoming
// deadline. Clients with no e-mail address are skipped.
func (m *DeadlineMonitor) sendReminders(ctx context.Context, due []*models.Compliance) {
	for _, item := range due {
		client, err := m.clients.GetByID(ctx, item.ClientID)
		if err != nil {
			m.logger.Warn("reminder_client_lookup_failed",
				zap.String("client_id", item.ClientID.String()), zap.Error(err))
			continue
		}
		if client.Email == nil || *client.Email == "" {
			continue
		}

		if err := m.mailer.SendDeadlineReminder([]string{*client.Email}, client.Name, item.Name, item.DueDate); err != nil {
			m.logger.Warn("reminder_send_failed",
				zap.String("client_id", item.ClientID.String()), zap.Error(err))
		}
	}
}
