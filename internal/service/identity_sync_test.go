package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpdesk/employee-portal/internal/auth"
	"github.com/corpdesk/employee-portal/internal/docstore"
	"github.com/corpdesk/employee-portal/internal/domain"
	"github.com/corpdesk/employee-portal/internal/events"
	apperrors "github.com/corpdesk/employee-portal/pkg/util/errorutil"
)

func TestRegisterStoresEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var published []events.Event
	f.dispatcher.Subscribe(events.EventEmployeeRegistered, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	result := f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	require.NotNil(t, result.Employee)
	assert.Equal(t, result.Principal.UID, result.Employee.UID)
	assert.Equal(t, "Ana", result.Principal.DisplayName)
	assert.False(t, result.Employee.CreatedAt.IsZero())

	lookup := f.svc.GetCurrentEmployee(ctx, result.Session)
	require.Equal(t, LookupFound, lookup.Status)
	assert.Equal(t, "Ana", lookup.Employee.Name)
	assert.Equal(t, "ana@x.com", lookup.Employee.Email)
	assert.Equal(t, "E100", lookup.Employee.EmpID)

	require.Len(t, published, 1)
	assert.Equal(t, result.Principal.UID, published[0].UID)
}

func TestRegisterKeepsSubmittedEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result := f.register(t, "Ana", "Ana@X.com", "secret1", "E100")
	assert.Equal(t, "Ana@X.com", result.Employee.Email)

	lookup := f.svc.GetCurrentEmployee(ctx, result.Session)
	require.Equal(t, LookupFound, lookup.Status)
	assert.Equal(t, "Ana@X.com", lookup.Employee.Email)

	_, err := f.svc.Login(ctx, "ana@x.com", "secret1")
	assert.NoError(t, err)
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "Ana", Email: "ana@x.com", Password: "secret1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestRegisterDuplicateEmpID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	_, err := f.svc.Register(ctx, RegisterInput{Name: "Bea", Email: "bea@x.com", Password: "secret2", EmpID: "E100"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateEmpID))

	employees, err := f.svc.ListAllEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 1)

	_, err = f.provider.SignIn(ctx, "bea@x.com", "secret2")
	assert.Error(t, err, "no account may be created for a rejected registration")
}

func TestRegisterProviderFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ana 2", Email: "ana@x.com", Password: "secret1", EmpID: "E101"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRegistrationFailed))

	_, err = f.svc.Register(ctx, RegisterInput{Name: "Bea", Email: "bea@x.com", Password: "123", EmpID: "E102"})
	require.True(t, apperrors.HasCode(err, apperrors.CodeRegistrationFailed))
	assert.Equal(t, "Password is too weak", apperrors.ToDomainError(err).Message)
}

func TestRegisterRemovesAccountWhenDocumentWriteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.putErr = errors.New("document store offline")

	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@x.com", Password: "secret1", EmpID: "E100"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRegistrationFailed))

	accounts, err := f.provider.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestRegisterRaceResolvedByUniqueIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	// The pre-check cannot run, so the write itself must reject the duplicate.
	f.store.queryErr = errors.New("query timeout")
	_, err := f.svc.Register(ctx, RegisterInput{Name: "Bea", Email: "bea@x.com", Password: "secret2", EmpID: "E100"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateEmpID))

	accounts, err := f.provider.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestLoginReturnsEmployee(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	result, err := f.svc.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.Principal.UID, result.Principal.UID)
	assert.Equal(t, "E100", result.Employee.EmpID)
	assert.NotEmpty(t, result.Session.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	result, err := f.svc.Login(context.Background(), "ana@x.com", "wrong")
	assert.Nil(t, result)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
}

func TestLoginWithoutEmployeeKeepsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	require.NoError(t, f.memory.Delete(ctx, domain.EmployeesCollection, registered.Principal.UID))

	result, err := f.svc.Login(ctx, "ana@x.com", "secret1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmployeeRecordMissing))
	require.NotNil(t, result)
	require.NotNil(t, result.Session)

	lookup := f.svc.GetCurrentEmployee(ctx, result.Session)
	assert.Equal(t, LookupNotFound, lookup.Status)
	assert.Nil(t, lookup.Employee)
}

func TestGetCurrentEmployeeStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, LookupNoPrincipal, f.svc.GetCurrentEmployee(ctx, nil).Status)

	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	require.NoError(t, f.svc.Logout(ctx, registered.Session))
	assert.Equal(t, LookupNoPrincipal, f.svc.GetCurrentEmployee(ctx, registered.Session).Status)
}

func TestCheckEmpID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	assert.Equal(t, LookupFound, f.svc.CheckEmpID(ctx, "E100"))
	assert.Equal(t, LookupNotFound, f.svc.CheckEmpID(ctx, "E999"))

	f.store.queryErr = errors.New("query timeout")
	assert.Equal(t, LookupUnavailable, f.svc.CheckEmpID(ctx, "E100"))
}

func TestUpdateProfileNameOnlyMerges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	uid := registered.Principal.UID

	updated, err := f.svc.UpdateProfile(ctx, registered.Session, uid, ProfileUpdate{Name: strPtr("Ana Maria")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, "ana@x.com", updated.Email)
	assert.Equal(t, "E100", updated.EmpID)

	lookup := f.svc.GetCurrentEmployee(ctx, registered.Session)
	require.Equal(t, LookupFound, lookup.Status)
	assert.Equal(t, *updated, *lookup.Employee)
	assert.Equal(t, "Ana Maria", registered.Session.Principal.DisplayName)
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	_, err := f.svc.UpdateProfile(ctx, nil, registered.Principal.UID, ProfileUpdate{Name: strPtr("X")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAuthenticated))

	_, err = f.svc.UpdateProfile(ctx, registered.Session, "someone-else", ProfileUpdate{Name: strPtr("X")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestUpdateProfileMissingDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	require.NoError(t, f.memory.Delete(ctx, domain.EmployeesCollection, registered.Principal.UID))

	_, err := f.svc.UpdateProfile(ctx, registered.Session, registered.Principal.UID, ProfileUpdate{Name: strPtr("X")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmployeeRecordMissing))
}

func TestUpdateProfileDuplicateEmpIDCheckedBeforeRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	bea := f.register(t, "Bea", "bea@x.com", "secret2", "E200")
	require.NoError(t, f.memory.Delete(ctx, domain.EmployeesCollection, bea.Principal.UID))

	_, err := f.svc.UpdateProfile(ctx, bea.Session, bea.Principal.UID, ProfileUpdate{EmpID: strPtr("E100")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateEmpID))

	_, err = f.svc.UpdateProfile(ctx, bea.Session, bea.Principal.UID, ProfileUpdate{EmpID: strPtr("E300")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmployeeRecordMissing))
}

func TestUpdateProfileEmpIDUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	bea := f.register(t, "Bea", "bea@x.com", "secret2", "E200")
	uid := bea.Principal.UID

	_, err := f.svc.UpdateProfile(ctx, bea.Session, uid, ProfileUpdate{EmpID: strPtr("E100")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateEmpID))

	unchanged, err := f.svc.UpdateProfile(ctx, bea.Session, uid, ProfileUpdate{EmpID: strPtr("E200")})
	require.NoError(t, err)
	assert.Equal(t, "E200", unchanged.EmpID)

	f.store.queryErr = errors.New("query timeout")
	_, err = f.svc.UpdateProfile(ctx, bea.Session, uid, ProfileUpdate{EmpID: strPtr("E100")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateEmpID), "unique index still guards the write")
}

func TestUpdateProfileEmailNeedsFreshSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	uid := registered.Principal.UID

	f.clock.Advance(10 * time.Minute)
	_, err := f.svc.UpdateProfile(ctx, registered.Session, uid, ProfileUpdate{
		Name:  strPtr("Ana Maria"),
		Email: strPtr("ana.m@x.com"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeReauthenticationRequired))
	assert.Equal(t, "Please log out and log back in before updating your email address", apperrors.ToDomainError(err).Message)

	doc, err := f.memory.Get(ctx, domain.EmployeesCollection, uid)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", doc["email"])
	assert.Equal(t, "Ana", doc["name"])
}

func TestUpdateProfileEmailWithFreshSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	updated, err := f.svc.UpdateProfile(ctx, registered.Session, registered.Principal.UID, ProfileUpdate{Email: strPtr("Ana.M@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "Ana.M@x.com", updated.Email)

	result, err := f.svc.Login(ctx, "ana.m@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ana.M@x.com", result.Employee.Email)
}

func TestUpdateProfileEmailCaseOnlySkipsProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	// Past the recent-login window a real address change would be refused.
	f.clock.Advance(10 * time.Minute)
	updated, err := f.svc.UpdateProfile(ctx, registered.Session, registered.Principal.UID, ProfileUpdate{Email: strPtr("Ana@X.com")})
	require.NoError(t, err)
	assert.Equal(t, "Ana@X.com", updated.Email)
	assert.Equal(t, "ana@x.com", registered.Session.Principal.Email)

	lookup := f.svc.GetCurrentEmployee(ctx, registered.Session)
	require.Equal(t, LookupFound, lookup.Status)
	assert.Equal(t, "Ana@X.com", lookup.Employee.Email)
}

func TestUpdateProfileRevertsEmailWhenMergeFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	f.store.putErr = errors.New("document store offline")
	_, err := f.svc.UpdateProfile(ctx, registered.Session, registered.Principal.UID, ProfileUpdate{Email: strPtr("ana.m@x.com")})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeProviderError))

	f.store.putErr = nil
	_, err = f.provider.SignIn(ctx, "ana@x.com", "secret1")
	assert.NoError(t, err, "provider email must be restored")
	assert.Equal(t, "ana@x.com", registered.Session.Principal.Email)
}

func TestDeleteAccountWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	err := f.svc.DeleteAccount(ctx, registered.Session, "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeReauthenticationFailed))

	_, err = f.memory.Get(ctx, domain.EmployeesCollection, registered.Principal.UID)
	assert.NoError(t, err)
}

func TestDeleteAccountRemovesDocumentAndAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	uid := registered.Principal.UID

	f.clock.Advance(30 * time.Minute)
	require.NoError(t, f.svc.DeleteAccount(ctx, registered.Session, "secret1"))

	_, err := f.memory.Get(ctx, domain.EmployeesCollection, uid)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Equal(t, LookupNoPrincipal, f.svc.GetCurrentEmployee(ctx, registered.Session).Status)

	_, err = f.svc.Login(ctx, "ana@x.com", "secret1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
	assert.Equal(t, LookupNotFound, f.svc.CheckEmpID(ctx, "E100"))
}

func TestDeleteAccountRestoresDocumentWhenProviderFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	uid := registered.Principal.UID

	svc := NewIdentitySync(IdentityDependencies{
		Provider: &failingProvider{Provider: f.provider, deleteErr: errors.New("provider unavailable")},
		Store:    f.store,
	})
	err := svc.DeleteAccount(ctx, registered.Session, "secret1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeProviderError))

	doc, err := f.memory.Get(ctx, domain.EmployeesCollection, uid)
	require.NoError(t, err)
	assert.Equal(t, "E100", doc["empID"])
}

func TestDeleteAccountKeepsAccountAndDocumentWhenRevokeFails(t *testing.T) {
	f := newFixtureWithSessions(t, func(inner auth.SessionStore) auth.SessionStore {
		return &failingSessionStore{SessionStore: inner, revokeErr: errors.New("redis down")}
	})
	ctx := context.Background()
	registered := f.register(t, "Ana", "ana@x.com", "secret1", "E100")
	uid := registered.Principal.UID

	err := f.svc.DeleteAccount(ctx, registered.Session, "secret1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeProviderError))

	doc, err := f.memory.Get(ctx, domain.EmployeesCollection, uid)
	require.NoError(t, err)
	assert.Equal(t, "E100", doc["empID"])

	accounts, err := f.provider.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, uid, accounts[0].UID)
}

func TestDeleteAccountRequiresSession(t *testing.T) {
	f := newFixture(t)
	err := f.svc.DeleteAccount(context.Background(), nil, "secret1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAuthenticated))
}

func TestListAllEmployeesStoreFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewIdentitySync(IdentityDependencies{Provider: f.provider, Store: brokenListStore{f.memory}})

	_, err := svc.ListAllEmployees(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeProviderError))
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "Ana", "ana@x.com", "secret1", "E100")

	login, err := f.svc.Login(ctx, "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "E100", login.Employee.EmpID)

	_, err = f.svc.UpdateProfile(ctx, login.Session, login.Principal.UID, ProfileUpdate{EmpID: strPtr("E200")})
	require.NoError(t, err)

	employees, err := f.svc.ListAllEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "E200", employees[0].EmpID)
	for _, e := range employees {
		assert.NotEqual(t, "E100", e.EmpID)
	}
}

type brokenListStore struct {
	docstore.Store
}

func (brokenListStore) List(context.Context, string) ([]docstore.Document, error) {
	return nil, errors.New("cursor killed")
}
