package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/corpdesk/employee-portal/internal/auth"
	"github.com/corpdesk/employee-portal/internal/docstore"
	"github.com/corpdesk/employee-portal/internal/domain"
	"github.com/corpdesk/employee-portal/internal/events"
	"github.com/corpdesk/employee-portal/internal/observability"
	apperrors "github.com/corpdesk/employee-portal/pkg/util/errorutil"
)

// Workflow names used for metrics and logs.
const (
	WorkflowRegister      = "register"
	WorkflowLogin         = "login"
	WorkflowLogout        = "logout"
	WorkflowUpdateProfile = "update_profile"
	WorkflowDeleteAccount = "delete_account"
)

// LookupStatus is the outcome of a soft-fail read.
type LookupStatus string

const (
	LookupFound       LookupStatus = "found"
	LookupNotFound    LookupStatus = "not_found"
	LookupUnavailable LookupStatus = "unavailable"
	LookupNoPrincipal LookupStatus = "no_principal"
)

// EmployeeLookup is returned by GetCurrentEmployee. Employee is set only when Status is
// LookupFound.
type EmployeeLookup struct {
	Status   LookupStatus
	Employee *domain.Employee
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	EmpID    string
}

// ProfileUpdate holds the fields to change. Nil or empty fields are left untouched.
type ProfileUpdate struct {
	Name  *string
	Email *string
	EmpID *string
}

// AuthResult pairs the signed-in principal with its session and employee record.
type AuthResult struct {
	Principal *domain.Principal
	Session   *domain.Session
	Employee  *domain.Employee
}

// IdentityDependencies groups the collaborators of IdentitySync.
type IdentityDependencies struct {
	Provider   auth.Provider
	Store      docstore.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// IdentitySync keeps identity accounts and employee documents in step.
type IdentitySync struct {
	provider   auth.Provider
	store      docstore.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewIdentitySync builds the service.
func NewIdentitySync(deps IdentityDependencies) *IdentitySync {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentitySync{
		provider:   deps.Provider,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger.Named("identity_sync"),
		now:        time.Now,
	}
}

// Init prepares the employees collection, including the unique empID index.
func (s *IdentitySync) Init(ctx context.Context) error {
	if err := s.store.EnsureUnique(ctx, domain.EmployeesCollection, fieldEmpID); err != nil {
		return fmt.Errorf("ensure unique empID: %w", err)
	}
	return nil
}

// Register creates the identity account and its employee document. If the document cannot
// be written the new account is removed again.
func (s *IdentitySync) Register(ctx context.Context, in RegisterInput) (result *AuthResult, err error) {
	defer func() { s.metrics.RecordWorkflow(WorkflowRegister, err) }()

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	empID := strings.TrimSpace(in.EmpID)
	if name == "" || email == "" || empID == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("name, email, password and empID are required", nil)
	}

	switch s.CheckEmpID(ctx, empID) {
	case LookupFound:
		return nil, apperrors.NewDuplicateEmpID(empID)
	case LookupUnavailable:
		s.logger.Warn("empID pre-check skipped, relying on unique index", zap.String("emp_id", empID))
	}

	sess, err := s.provider.CreateAccount(ctx, email, in.Password)
	if err != nil {
		return nil, registrationError(err)
	}
	uid := sess.Principal.UID

	if err := s.provider.UpdateDisplayName(ctx, sess, name); err != nil {
		s.logger.Warn("display name not set", zap.String("uid", uid), zap.Error(err))
	}

	employee := &domain.Employee{
		UID:       uid,
		Name:      name,
		Email:     email,
		EmpID:     empID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Put(ctx, domain.EmployeesCollection, uid, employeeToDocument(employee), false); err != nil {
		var failure error
		if errors.Is(err, docstore.ErrDuplicate) {
			failure = apperrors.NewDuplicateEmpID(empID)
		} else {
			failure = apperrors.NewRegistrationFailed("Could not save employee record", err)
		}

		cerr := s.provider.DeleteAccount(ctx, sess)
		s.metrics.RecordCompensation(WorkflowRegister, cerr)
		if cerr != nil {
			s.logger.Error("orphaned account left after failed registration",
				zap.String("uid", uid), zap.String("emp_id", empID), zap.Error(cerr))
			return nil, errors.Join(failure, fmt.Errorf("remove account %s: %w", uid, cerr))
		}
		s.logger.Info("registration rolled back", zap.String("uid", uid), zap.Error(err))
		return nil, failure
	}

	s.publish(ctx, events.NewEvent(events.EventEmployeeRegistered, uid, events.EmployeeRegisteredPayload{
		Name:  employee.Name,
		Email: employee.Email,
		EmpID: employee.EmpID,
	}))

	return &AuthResult{Principal: sess.Principal, Session: sess, Employee: employee}, nil
}

// Login signs the principal in and loads its employee record. When the record is missing
// the live session is still returned together with the error.
func (s *IdentitySync) Login(ctx context.Context, email, password string) (result *AuthResult, err error) {
	defer func() { s.metrics.RecordWorkflow(WorkflowLogin, err) }()

	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return nil, apperrors.NewInvalidCredentials()
		case errors.Is(err, auth.ErrTooManyAttempts):
			return nil, apperrors.NewTooManyAttempts()
		default:
			return nil, apperrors.NewProviderError(err)
		}
	}

	result = &AuthResult{Principal: sess.Principal, Session: sess}
	employee, err := s.fetchEmployee(ctx, sess.Principal.UID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			s.logger.Warn("signed in without employee record", zap.String("uid", sess.Principal.UID))
			return result, apperrors.NewEmployeeRecordMissing(sess.Principal.UID)
		}
		return result, apperrors.NewProviderError(err)
	}
	result.Employee = employee
	return result, nil
}

// Logout ends the session.
func (s *IdentitySync) Logout(ctx context.Context, sess *domain.Session) (err error) {
	defer func() { s.metrics.RecordWorkflow(WorkflowLogout, err) }()

	if err := s.provider.SignOut(ctx, sess); err != nil {
		return apperrors.NewProviderError(err)
	}
	return nil
}

// GetCurrentEmployee returns the employee behind sess. It never fails: a missing session,
// a missing document and an unreachable store are reported through the status.
func (s *IdentitySync) GetCurrentEmployee(ctx context.Context, sess *domain.Session) EmployeeLookup {
	principal := s.provider.CurrentPrincipal(sess)
	if principal == nil {
		return EmployeeLookup{Status: LookupNoPrincipal}
	}

	employee, err := s.fetchEmployee(ctx, principal.UID)
	switch {
	case err == nil:
		return EmployeeLookup{Status: LookupFound, Employee: employee}
	case errors.Is(err, docstore.ErrNotFound):
		s.logger.Info("employee not found", zap.String("uid", principal.UID))
		return EmployeeLookup{Status: LookupNotFound}
	default:
		s.logger.Warn("employee lookup failed", zap.String("uid", principal.UID), zap.Error(err))
		return EmployeeLookup{Status: LookupUnavailable}
	}
}

// CheckEmpID reports whether an employee already holds empID.
func (s *IdentitySync) CheckEmpID(ctx context.Context, empID string) LookupStatus {
	holders, err := s.empIDHolders(ctx, empID)
	if err != nil {
		s.logger.Warn("empID lookup failed", zap.String("emp_id", empID), zap.Error(err))
		return LookupUnavailable
	}
	if len(holders) > 0 {
		return LookupFound
	}
	return LookupNotFound
}

// UpdateProfile changes the caller's own profile. The provider email is updated before the
// document, and reverted if the document write then fails.
func (s *IdentitySync) UpdateProfile(ctx context.Context, sess *domain.Session, uid string, update ProfileUpdate) (employee *domain.Employee, err error) {
	defer func() { s.metrics.RecordWorkflow(WorkflowUpdateProfile, err) }()

	principal := s.provider.CurrentPrincipal(sess)
	if principal == nil {
		return nil, apperrors.NewNotAuthenticated()
	}
	if uid != principal.UID {
		return nil, apperrors.NewForbidden("employees may only update their own profile")
	}

	empID := supplied(update.EmpID)
	if empID != "" {
		holders, err := s.empIDHolders(ctx, empID)
		if err != nil {
			s.logger.Warn("empID pre-check skipped, relying on unique index", zap.String("emp_id", empID), zap.Error(err))
		}
		for _, holder := range holders {
			if holder.UID != uid {
				return nil, apperrors.NewDuplicateEmpID(empID)
			}
		}
	}

	current, err := s.fetchEmployee(ctx, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.NewEmployeeRecordMissing(uid)
		}
		return nil, apperrors.NewProviderError(err)
	}

	patch := docstore.Document{}
	payload := events.EmployeeUpdatedPayload{}
	updated := *current

	if empID != "" && empID != current.EmpID {
		patch[fieldEmpID] = empID
		updated.EmpID = empID
		payload.Changed = append(payload.Changed, fieldEmpID)
	}

	emailChanged := false
	if email := supplied(update.Email); email != "" && email != current.Email {
		// The provider compares addresses case-insensitively; the document keeps the submitted form.
		if !strings.EqualFold(email, current.Email) {
			if err := s.provider.UpdateEmail(ctx, sess, email); err != nil {
				return nil, updateEmailError(err)
			}
			emailChanged = true
		}
		patch[fieldEmail] = email
		updated.Email = email
		payload.Changed = append(payload.Changed, fieldEmail)
		payload.OldEmail = current.Email
		payload.NewEmail = email
	}

	nameChanged := false
	if name := supplied(update.Name); name != "" {
		if err := s.provider.UpdateDisplayName(ctx, sess, name); err != nil {
			s.logger.Warn("display name not updated", zap.String("uid", uid), zap.Error(err))
		} else {
			nameChanged = true
		}
		patch[fieldName] = name
		updated.Name = name
		if name != current.Name {
			payload.Changed = append(payload.Changed, fieldName)
		}
	}

	if len(patch) == 0 {
		return current, nil
	}

	if err := s.store.Put(ctx, domain.EmployeesCollection, uid, patch, true); err != nil {
		s.revertProfile(ctx, sess, current, emailChanged, nameChanged)
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, apperrors.NewDuplicateEmpID(updated.EmpID)
		}
		return nil, apperrors.NewProviderError(err)
	}

	if len(payload.Changed) > 0 {
		s.publish(ctx, events.NewEvent(events.EventEmployeeUpdated, uid, payload))
	}
	return &updated, nil
}

// DeleteAccount re-verifies the password, deletes the employee document and then the
// account. If the account cannot be deleted the document is written back.
func (s *IdentitySync) DeleteAccount(ctx context.Context, sess *domain.Session, password string) (err error) {
	defer func() { s.metrics.RecordWorkflow(WorkflowDeleteAccount, err) }()

	principal := s.provider.CurrentPrincipal(sess)
	if principal == nil || principal.Email == "" {
		return apperrors.NewNotAuthenticated()
	}
	uid := principal.UID

	if err := s.provider.Reauthenticate(ctx, sess, auth.EmailCredential(principal.Email, password)); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return apperrors.NewReauthenticationFailed()
		case errors.Is(err, auth.ErrSessionInvalid):
			return apperrors.NewNotAuthenticated()
		default:
			return apperrors.NewProviderError(err)
		}
	}

	snapshot, err := s.store.Get(ctx, domain.EmployeesCollection, uid)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return apperrors.NewProviderError(err)
	}
	if err := s.store.Delete(ctx, domain.EmployeesCollection, uid); err != nil {
		return apperrors.NewProviderError(err)
	}

	if err := s.provider.DeleteAccount(ctx, sess); err != nil {
		if snapshot != nil {
			rerr := s.store.Put(ctx, domain.EmployeesCollection, uid, snapshot, false)
			s.metrics.RecordCompensation(WorkflowDeleteAccount, rerr)
			if rerr != nil {
				s.logger.Error("employee document lost after failed account deletion",
					zap.String("uid", uid), zap.Error(rerr))
			}
		}
		if errors.Is(err, auth.ErrRequiresRecentLogin) {
			return apperrors.NewReauthenticationRequired()
		}
		return apperrors.NewProviderError(err)
	}

	payload := events.EmployeeDeletedPayload{Email: principal.Email}
	if snapshot != nil {
		payload.EmpID = stringField(snapshot, fieldEmpID)
	}
	s.publish(ctx, events.NewEvent(events.EventEmployeeDeleted, uid, payload))
	return nil
}

// ListAllEmployees returns every employee document in store order.
func (s *IdentitySync) ListAllEmployees(ctx context.Context) ([]domain.Employee, error) {
	docs, err := s.store.List(ctx, domain.EmployeesCollection)
	if err != nil {
		return nil, apperrors.NewProviderError(err)
	}

	employees := make([]domain.Employee, 0, len(docs))
	for _, doc := range docs {
		employee, err := employeeFromDocument("", doc)
		if err != nil {
			s.logger.Warn("skipping malformed employee document", zap.Error(err))
			continue
		}
		employees = append(employees, *employee)
	}
	return employees, nil
}

func (s *IdentitySync) fetchEmployee(ctx context.Context, uid string) (*domain.Employee, error) {
	doc, err := s.store.Get(ctx, domain.EmployeesCollection, uid)
	if err != nil {
		return nil, err
	}
	return employeeFromDocument(uid, doc)
}

func (s *IdentitySync) empIDHolders(ctx context.Context, empID string) ([]domain.Employee, error) {
	docs, err := s.store.QueryWhere(ctx, domain.EmployeesCollection, fieldEmpID, empID)
	if err != nil {
		return nil, err
	}
	holders := make([]domain.Employee, 0, len(docs))
	for _, doc := range docs {
		holders = append(holders, domain.Employee{UID: stringField(doc, fieldUID), EmpID: empID})
	}
	return holders, nil
}

func (s *IdentitySync) revertProfile(ctx context.Context, sess *domain.Session, current *domain.Employee, emailChanged, nameChanged bool) {
	if emailChanged {
		err := s.provider.UpdateEmail(ctx, sess, current.Email)
		s.metrics.RecordCompensation(WorkflowUpdateProfile, err)
		if err != nil {
			s.logger.Error("provider email left out of sync with employee record",
				zap.String("uid", current.UID), zap.String("email", current.Email), zap.Error(err))
		}
	}
	if nameChanged {
		err := s.provider.UpdateDisplayName(ctx, sess, current.Name)
		s.metrics.RecordCompensation(WorkflowUpdateProfile, err)
		if err != nil {
			s.logger.Warn("display name left out of sync with employee record",
				zap.String("uid", current.UID), zap.Error(err))
		}
	}
}

func (s *IdentitySync) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func supplied(field *string) string {
	if field == nil {
		return ""
	}
	return strings.TrimSpace(*field)
}

func registrationError(err error) error {
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		return apperrors.NewRegistrationFailed("Password is too weak", err)
	case errors.Is(err, auth.ErrEmailTaken):
		return apperrors.NewRegistrationFailed("Email address is already in use", err)
	case errors.Is(err, auth.ErrInvalidEmail):
		return apperrors.NewRegistrationFailed("Email address is invalid", err)
	default:
		return apperrors.NewRegistrationFailed(err.Error(), err)
	}
}

func updateEmailError(err error) error {
	switch {
	case errors.Is(err, auth.ErrRequiresRecentLogin):
		return apperrors.NewReauthenticationRequired()
	case errors.Is(err, auth.ErrSessionInvalid):
		return apperrors.NewNotAuthenticated()
	case errors.Is(err, auth.ErrEmailTaken):
		return apperrors.NewConflict("Email address is already in use", nil)
	case errors.Is(err, auth.ErrInvalidEmail):
		return apperrors.NewValidationError("Email address is invalid", nil)
	default:
		return apperrors.NewProviderError(err)
	}
}
