package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testCtx = context.Background()

// testNow is the fixed batch time every engine test runs at.
var testNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Notification{},
		&model.Employee{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.CompanySetting{},
	))
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()
	e := NewEngine(db, time.UTC, zap.NewNop())
	e.now = func() time.Time { return testNow }
	return e
}

func seedAdmin(t *testing.T, db *gorm.DB, id, tenantID uint) model.User {
	t.Helper()
	admin := model.User{
		ID:       id,
		Email:    fmt.Sprintf("admin%d@tenant%d.ae", id, tenantID),
		Name:     fmt.Sprintf("Admin %d", id),
		Role:     model.RoleAdmin,
		TenantID: tenantID,
	}
	require.NoError(t, db.Create(&admin).Error)
	return admin
}

func daysFromNow(days int) *time.Time {
	d := testNow.AddDate(0, 0, days)
	return &d
}

func countNotifications(t *testing.T, db *gorm.DB, notifType string) int64 {
	t.Helper()
	var count int64
	q := db.Model(&model.Notification{})
	if notifType != "" {
		q = q.Where("type = ?", notifType)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}

func TestRunAllExpiryChecksIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	seedAdmin(t, db, 1, 1)

	require.NoError(t, db.Create(&model.Employee{
		TenantID:       1,
		Name:           "Hassan",
		PassportExpiry: daysFromNow(10),
	}).Error)

	first := e.RunAllExpiryChecks(testCtx)
	assert.Empty(t, first.Failures)
	assert.Equal(t, 1, first.Created[model.NotificationPassportExpiry])

	second := e.RunAllExpiryChecks(testCtx)
	assert.Empty(t, second.Failures)
	assert.Equal(t, 0, second.Created[model.NotificationPassportExpiry], "re-run must not duplicate")

	assert.Equal(t, int64(1), countNotifications(t, db, model.NotificationPassportExpiry))
}

func TestScanPassportExpiryWindow(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	seedAdmin(t, db, 1, 1)

	for _, emp := range []model.Employee{
		{TenantID: 1, Name: "today", PassportExpiry: daysFromNow(0)},
		{TenantID: 1, Name: "edge", PassportExpiry: daysFromNow(60)},
		{TenantID: 1, Name: "beyond", PassportExpiry: daysFromNow(61)},
		{TenantID: 1, Name: "lapsed", PassportExpiry: daysFromNow(-1)},
		{TenantID: 1, Name: "nodate"},
	} {
		require.NoError(t, db.Create(&emp).Error)
	}

	recipients, err := e.adminRecipients(testCtx)
	require.NoError(t, err)

	created, err := e.ScanPassportExpiry(testCtx, recipients)
	require.NoError(t, err)
	assert.Equal(t, 2, created, "only expiries within 0..60 days qualify")
}

func TestScanContractExpiryBand(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	seedAdmin(t, db, 1, 1)

	for _, emp := range []model.Employee{
		{TenantID: 1, Name: "d28", ContractActive: true, ContractEndDate: daysFromNow(28)},
		{TenantID: 1, Name: "d29", ContractActive: true, ContractEndDate: daysFromNow(29)},
		{TenantID: 1, Name: "d30", ContractActive: true, ContractEndDate: daysFromNow(30)},
		{TenantID: 1, Name: "d31", ContractActive: true, ContractEndDate: daysFromNow(31)},
	} {
		require.NoError(t, db.Create(&emp).Error)
	}

	// Created active first since the column defaults to true on insert.
	inactive := model.Employee{TenantID: 1, Name: "inactive", ContractActive: true, ContractEndDate: daysFromNow(30)}
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Model(&inactive).Update("contract_active", false).Error)

	recipients, err := e.adminRecipients(testCtx)
	require.NoError(t, err)

	created, err := e.ScanContractExpiry(testCtx, recipients)
	require.NoError(t, err)
	assert.Equal(t, 2, created, "only day 29 and 30 fire, active contracts only")
}

func TestScanFansOutPerTenantAdmin(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	seedAdmin(t, db, 1, 1)
	seedAdmin(t, db, 2, 1)
	seedAdmin(t, db, 3, 2)

	require.NoError(t, db.Create(&model.Employee{
		TenantID:       1,
		Name:           "Hassan",
		PassportExpiry: daysFromNow(10),
	}).Error)

	recipients, err := e.adminRecipients(testCtx)
	require.NoError(t, err)

	created, err := e.ScanPassportExpiry(testCtx, recipients)
	require.NoError(t, err)
	assert.Equal(t, 2, created, "one copy per admin of the owning tenant")

	var crossTenant int64
	require.NoError(t, db.Model(&model.Notification{}).Where("user_id = ?", 3).Count(&crossTenant).Error)
	assert.Equal(t, int64(0), crossTenant, "admins of other tenants receive nothing")
}

func TestScanLicenseExpiryBand(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	seedAdmin(t, db, 1, 1)
	seedAdmin(t, db, 2, 2)

	require.NoError(t, db.Create(&model.CompanySetting{TenantID: 1, TradeLicenseExpiry: daysFromNow(30)}).Error)
	require.NoError(t, db.Create(&model.CompanySetting{TenantID: 2, TradeLicenseExpiry: daysFromNow(45)}).Error)

	recipients, err := e.adminRecipients(testCtx)
	require.NoError(t, err)

	created, err := e.ScanLicenseExpiry(testCtx, recipients)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestScanVATDueFiresWeekBeforeDeadline(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	// June 21: the filing deadline (June 28) is exactly 7 days out.
	e.now = func() time.Time { return time.Date(2025, time.June, 21, 9, 0, 0, 0, time.UTC) }

	seedAdmin(t, db, 1, 1)
	seedAdmin(t, db, 2, 2)
	require.NoError(t, db.Create(&model.CompanySetting{TenantID: 1, VATRegistered: true}).Error)
	require.NoError(t, db.Create(&model.CompanySetting{TenantID: 2, VATRegistered: false}).Error)

	recipients, err := e.adminRecipients(testCtx)
	require.NoError(t, err)

	created, err := e.ScanVATDue(testCtx, recipients)
	require.NoError(t, err)
	assert.Equal(t, 1, created, "only VAT-registered tenants are reminded")
}

func TestScanVATDueQuietOutsideBand(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)

	seedAdmin(t, db, 1, 1)
	require.NoError(t, db.Create(&model.CompanySetting{TenantID: 1, VATRegistered: true}).Error)

	recipients, err := e.adminRecipients(testCtx)
	require.NoError(t, err)

	// June 1: deadline is 27 days away.
	created, err := e.ScanVATDue(testCtx, recipients)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestScanInvoiceDueSkipsSettledInvoices(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	seedAdmin(t, db, 1, 1)

	for _, inv := range []model.Invoice{
		{TenantID: 1, Number: "INV-001", Status: model.InvoiceSent, DueDate: daysFromNow(7)},
		{TenantID: 1, Number: "INV-002", Status: model.InvoicePaid, DueDate: daysFromNow(7)},
		{TenantID: 1, Number: "INV-003", Status: model.InvoiceCancelled, DueDate: daysFromNow(6)},
		{TenantID: 1, Number: "INV-004", Status: model.InvoiceDraft, DueDate: daysFromNow(6)},
		{TenantID: 1, Number: "INV-005", Status: model.InvoiceSent, DueDate: daysFromNow(14)},
	} {
		require.NoError(t, db.Create(&inv).Error)
	}

	recipients, err := e.adminRecipients(testCtx)
	require.NoError(t, err)

	created, err := e.ScanInvoiceDue(testCtx, recipients)
	require.NoError(t, err)
	assert.Equal(t, 2, created, "paid and cancelled invoices never remind")
}

func TestRunAllExpiryChecksIsolatesFailures(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	seedAdmin(t, db, 1, 1)

	require.NoError(t, db.Create(&model.Employee{
		TenantID:       1,
		Name:           "Hassan",
		PassportExpiry: daysFromNow(10),
	}).Error)

	// Break the settings-backed scans only.
	require.NoError(t, db.Migrator().DropTable(&model.CompanySetting{}))

	result := e.RunAllExpiryChecks(testCtx)

	assert.Equal(t, 1, result.Created[model.NotificationPassportExpiry], "healthy scans still run")
	assert.Contains(t, result.Failures, model.NotificationLicenseExpiry)
	assert.Contains(t, result.Failures, model.NotificationVATDue)
	assert.NotContains(t, result.Failures, model.NotificationInvoiceDue)

	msgs := result.FailureMessages()
	assert.Len(t, msgs, 2)
}

func TestRunAllExpiryChecksRecipientsFailure(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)

	require.NoError(t, db.Migrator().DropTable(&model.User{}))

	result := e.RunAllExpiryChecks(testCtx)
	assert.Contains(t, result.Failures, "recipients")
	assert.Empty(t, result.Created)
}

func TestCheckEmployeeExpiriesImmediate(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	seedAdmin(t, db, 1, 1)

	emp := model.Employee{
		TenantID:       1,
		Name:           "Hassan",
		PassportExpiry: daysFromNow(5),
		VisaExpiry:     daysFromNow(90),
	}
	require.NoError(t, db.Create(&emp).Error)

	e.CheckEmployeeExpiries(testCtx, &emp)

	assert.Equal(t, int64(1), countNotifications(t, db, model.NotificationPassportExpiry))
	assert.Equal(t, int64(0), countNotifications(t, db, model.NotificationVisaExpiry), "visa outside window stays quiet")

	// The scheduled batch later the same day must not duplicate the
	// immediate notification.
	result := e.RunAllExpiryChecks(testCtx)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 0, result.Created[model.NotificationPassportExpiry])
}

func TestCheckEmployeeExpiriesNeverPanicsOnFailure(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)

	require.NoError(t, db.Migrator().DropTable(&model.User{}))

	emp := model.Employee{TenantID: 1, Name: "Hassan", PassportExpiry: daysFromNow(5)}
	assert.NotPanics(t, func() {
		e.CheckEmployeeExpiries(testCtx, &emp)
	})
}

func TestCreateTreatsDuplicateKeyAsNoOp(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)

	due := daysFromNow(10)
	template := model.Notification{
		UserID:   1,
		TenantID: 1,
		Type:     model.NotificationPassportExpiry,
		Title:    "Passport expiring: Hassan",
		DueDate:  due,
	}

	n1 := template
	ok, err := e.create(testCtx, &n1, "employee-1")
	require.NoError(t, err)
	assert.True(t, ok)

	n2 := template
	ok, err = e.create(testCtx, &n2, "employee-1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, int64(1), countNotifications(t, db, ""))
}
