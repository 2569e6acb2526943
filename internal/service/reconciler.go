package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/corpdesk/employee-portal/internal/auth"
	"github.com/corpdesk/employee-portal/internal/config"
	"github.com/corpdesk/employee-portal/internal/docstore"
	"github.com/corpdesk/employee-portal/internal/domain"
	"github.com/corpdesk/employee-portal/internal/events"
)

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Accounts                int       `json:"accounts"`
	Employees               int       `json:"employees"`
	AccountsWithoutEmployee []string  `json:"accounts_without_employee"`
	EmployeesWithoutAccount []string  `json:"employees_without_account"`
	Purged                  []string  `json:"purged"`
	StartedAt               time.Time `json:"started_at"`
	FinishedAt              time.Time `json:"finished_at"`
}

// ReconcilerDependencies groups the collaborators of Reconciler.
type ReconcilerDependencies struct {
	Directory  auth.AccountDirectory
	Store      docstore.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// Reconciler finds accounts and employee documents that lost their counterpart, typically
// because a compensation step failed.
type Reconciler struct {
	directory  auth.AccountDirectory
	store      docstore.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	grace      time.Duration
	purge      bool
	now        func() time.Time
}

// NewReconciler builds the job.
func NewReconciler(deps ReconcilerDependencies, cfg config.ReconcileConfig) *Reconciler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		directory:  deps.Directory,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger.Named("reconciler"),
		grace:      cfg.GracePeriod(),
		purge:      cfg.PurgeOrphans,
		now:        time.Now,
	}
}

// Run performs one pass. Accounts younger than the grace period are ignored since their
// registration may still be in flight. Only accounts are ever purged; employee documents
// without an account are reported for manual follow-up.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{StartedAt: r.now().UTC()}

	accounts, err := r.directory.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	docs, err := r.store.List(ctx, domain.EmployeesCollection)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	report.Accounts = len(accounts)
	report.Employees = len(docs)

	employeeUIDs := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if uid := stringField(doc, fieldUID); uid != "" {
			employeeUIDs[uid] = struct{}{}
		}
	}
	accountUIDs := make(map[string]struct{}, len(accounts))
	for _, account := range accounts {
		accountUIDs[account.UID] = struct{}{}
	}

	cutoff := r.now().Add(-r.grace)
	for _, account := range accounts {
		if _, ok := employeeUIDs[account.UID]; ok {
			continue
		}
		if account.CreatedAt.After(cutoff) {
			continue
		}
		report.AccountsWithoutEmployee = append(report.AccountsWithoutEmployee, account.UID)

		purged := false
		if r.purge {
			if err := r.directory.PurgeAccount(ctx, account.UID); err != nil {
				r.logger.Error("purge orphaned account failed", zap.String("uid", account.UID), zap.Error(err))
			} else {
				purged = true
				report.Purged = append(report.Purged, account.UID)
			}
		}
		r.publish(ctx, events.NewEvent(events.EventOrphanDetected, account.UID, events.OrphanDetectedPayload{
			Kind:   events.OrphanAccountWithoutEmployee,
			Email:  account.Email,
			Purged: purged,
		}))
	}

	for uid := range employeeUIDs {
		if _, ok := accountUIDs[uid]; ok {
			continue
		}
		report.EmployeesWithoutAccount = append(report.EmployeesWithoutAccount, uid)
		r.publish(ctx, events.NewEvent(events.EventOrphanDetected, uid, events.OrphanDetectedPayload{
			Kind: events.OrphanEmployeeWithoutAccount,
		}))
	}
	sort.Strings(report.EmployeesWithoutAccount)

	report.FinishedAt = r.now().UTC()
	r.logger.Info("reconciliation finished",
		zap.Int("accounts", report.Accounts),
		zap.Int("employees", report.Employees),
		zap.Int("accounts_without_employee", len(report.AccountsWithoutEmployee)),
		zap.Int("employees_without_account", len(report.EmployeesWithoutAccount)),
		zap.Int("purged", len(report.Purged)))
	return report, nil
}

func (r *Reconciler) publish(ctx context.Context, event events.Event) {
	if r.dispatcher == nil {
		return
	}
	if err := r.dispatcher.Publish(ctx, event); err != nil {
		r.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
