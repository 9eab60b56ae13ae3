package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/billing"
	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"
	"go.uber.org/zap"
)

// Lookahead windows per scan type. Passport and visa use a full window so a
// daily run keeps re-surfacing the item (the calendar day in the dedup key
// re-arms it every day); the remaining scans use a two-day band so they fire
// near-exactly once per deadline.
const (
	documentLookaheadDays = 60
	contractLookaheadDays = 30
	licenseLookaheadDays  = 30
	billingLookaheadDays  = 7
)

// BatchResult reports the outcome of one RunAllExpiryChecks invocation.
type BatchResult struct {
	Created  map[string]int   `json:"created"`
	Failures map[string]error `json:"-"`
}

// FailureMessages returns the per-scan failures as strings, for logging and
// API responses.
func (r BatchResult) FailureMessages() map[string]string {
	out := make(map[string]string, len(r.Failures))
	for scan, err := range r.Failures {
		out[scan] = err.Error()
	}
	return out
}

// RunAllExpiryChecks invokes every scan in a fixed sequence. A failing scan
// is recorded and the remainder proceed; the batch itself never returns an
// error because it runs unattended on a timer.
func (e *Engine) RunAllExpiryChecks(ctx context.Context) BatchResult {
	recipients, err := e.adminRecipients(ctx)
	if err != nil {
		e.log.Error("expiry batch aborted, could not load recipients", zap.Error(err))
		return BatchResult{
			Created: map[string]int{},
			Failures: map[string]error{
				"recipients": err,
			},
		}
	}

	scans := []struct {
		name string
		run  func(context.Context, map[uint][]model.User) (int, error)
	}{
		{model.NotificationPassportExpiry, e.ScanPassportExpiry},
		{model.NotificationVisaExpiry, e.ScanVisaExpiry},
		{model.NotificationContractExpiry, e.ScanContractExpiry},
		{model.NotificationLicenseExpiry, e.ScanLicenseExpiry},
		{model.NotificationVATDue, e.ScanVATDue},
		{model.NotificationInvoiceDue, e.ScanInvoiceDue},
	}

	result := BatchResult{
		Created:  make(map[string]int, len(scans)),
		Failures: make(map[string]error),
	}

	for _, scan := range scans {
		start := time.Now()
		created, err := scan.run(ctx, recipients)
		prometheus.ScanDuration.WithLabelValues(scan.name).Observe(time.Since(start).Seconds())

		result.Created[scan.name] = created
		if err != nil {
			result.Failures[scan.name] = err
			prometheus.ScanFailureCounter.WithLabelValues(scan.name).Inc()
			e.log.Error("expiry scan failed",
				zap.String("scan", scan.name),
				zap.Int("created_before_failure", created),
				zap.Error(err))
			continue
		}
		e.log.Info("expiry scan completed",
			zap.String("scan", scan.name),
			zap.Int("created", created))
	}

	return result
}

// ScanPassportExpiry notifies tenant admins about passports expiring within
// the document window.
func (e *Engine) ScanPassportExpiry(ctx context.Context, recipients map[uint][]model.User) (int, error) {
	return e.scanEmployeeDocuments(ctx, recipients, model.NotificationPassportExpiry)
}

// ScanVisaExpiry notifies tenant admins about visas expiring within the
// document window.
func (e *Engine) ScanVisaExpiry(ctx context.Context, recipients map[uint][]model.User) (int, error) {
	return e.scanEmployeeDocuments(ctx, recipients, model.NotificationVisaExpiry)
}

func (e *Engine) scanEmployeeDocuments(ctx context.Context, recipients map[uint][]model.User, notifType string) (int, error) {
	column := "passport_expiry"
	label := "Passport"
	if notifType == model.NotificationVisaExpiry {
		column = "visa_expiry"
		label = "Visa"
	}

	var employees []model.Employee
	if err := e.db.WithContext(ctx).Where(column + " IS NOT NULL").Find(&employees).Error; err != nil {
		return 0, fmt.Errorf("fetch employees: %w", err)
	}

	created := 0
	for _, emp := range employees {
		expiry := emp.PassportExpiry
		if notifType == model.NotificationVisaExpiry {
			expiry = emp.VisaExpiry
		}
		if expiry == nil {
			continue
		}

		days := e.daysUntil(*expiry)
		if days < 0 || days > documentLookaheadDays {
			continue
		}

		n, err := e.fanOut(ctx, recipients, emp.TenantID, fmt.Sprintf("employee-%d", emp.ID), model.Notification{
			Type:    notifType,
			Title:   fmt.Sprintf("%s expiring: %s", label, emp.Name),
			Message: fmt.Sprintf("%s of %s expires in %d day(s).", label, emp.Name, days),
			DueDate: expiry,
			Link:    fmt.Sprintf("/hr/employees/%d", emp.ID),
		})
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

// ScanContractExpiry notifies tenant admins about active contracts ending 29
// or 30 days out.
func (e *Engine) ScanContractExpiry(ctx context.Context, recipients map[uint][]model.User) (int, error) {
	var employees []model.Employee
	err := e.db.WithContext(ctx).
		Where("contract_active = ? AND contract_end_date IS NOT NULL", true).
		Find(&employees).Error
	if err != nil {
		return 0, fmt.Errorf("fetch contracts: %w", err)
	}

	created := 0
	for _, emp := range employees {
		days := e.daysUntil(*emp.ContractEndDate)
		if days < contractLookaheadDays-1 || days > contractLookaheadDays {
			continue
		}

		n, err := e.fanOut(ctx, recipients, emp.TenantID, fmt.Sprintf("employee-%d", emp.ID), model.Notification{
			Type:    model.NotificationContractExpiry,
			Title:   fmt.Sprintf("Contract ending: %s", emp.Name),
			Message: fmt.Sprintf("Employment contract of %s ends in %d day(s).", emp.Name, days),
			DueDate: emp.ContractEndDate,
			Link:    fmt.Sprintf("/hr/employees/%d", emp.ID),
		})
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

// ScanLicenseExpiry notifies tenant admins about trade licenses expiring 29
// or 30 days out.
func (e *Engine) ScanLicenseExpiry(ctx context.Context, recipients map[uint][]model.User) (int, error) {
	var settings []model.CompanySetting
	err := e.db.WithContext(ctx).
		Where("trade_license_expiry IS NOT NULL").
		Find(&settings).Error
	if err != nil {
		return 0, fmt.Errorf("fetch company settings: %w", err)
	}

	created := 0
	for _, setting := range settings {
		days := e.daysUntil(*setting.TradeLicenseExpiry)
		if days < licenseLookaheadDays-1 || days > licenseLookaheadDays {
			continue
		}

		n, err := e.fanOut(ctx, recipients, setting.TenantID, globalEntity, model.Notification{
			Type:    model.NotificationLicenseExpiry,
			Title:   "Trade license expiring",
			Message: fmt.Sprintf("The trade license expires in %d day(s). Renew it before the deadline.", days),
			DueDate: setting.TradeLicenseExpiry,
			Link:    "/settings/license",
		})
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

// ScanVATDue notifies admins of VAT-registered tenants 6 or 7 days ahead of
// the monthly filing deadline.
func (e *Engine) ScanVATDue(ctx context.Context, recipients map[uint][]model.User) (int, error) {
	var settings []model.CompanySetting
	err := e.db.WithContext(ctx).
		Where("vat_registered = ?", true).
		Find(&settings).Error
	if err != nil {
		return 0, fmt.Errorf("fetch VAT registrations: %w", err)
	}

	deadline := billing.VATFilingDeadline(e.now(), e.loc)
	days := e.daysUntil(deadline)
	if days < billingLookaheadDays-1 || days > billingLookaheadDays {
		return 0, nil
	}

	created := 0
	for _, setting := range settings {
		n, err := e.fanOut(ctx, recipients, setting.TenantID, globalEntity, model.Notification{
			Type:    model.NotificationVATDue,
			Title:   "VAT return due soon",
			Message: fmt.Sprintf("The monthly VAT return is due in %d day(s).", days),
			DueDate: &deadline,
			Link:    "/accounting/vat",
		})
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

// ScanInvoiceDue notifies tenant admins about unpaid invoices due 6 or 7 days
// out. Paid and cancelled invoices are excluded.
func (e *Engine) ScanInvoiceDue(ctx context.Context, recipients map[uint][]model.User) (int, error) {
	var invoices []model.Invoice
	err := e.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND status NOT IN ?", []string{model.InvoicePaid, model.InvoiceCancelled}).
		Find(&invoices).Error
	if err != nil {
		return 0, fmt.Errorf("fetch invoices: %w", err)
	}

	created := 0
	for _, inv := range invoices {
		days := e.daysUntil(*inv.DueDate)
		if days < billingLookaheadDays-1 || days > billingLookaheadDays {
			continue
		}

		n, err := e.fanOut(ctx, recipients, inv.TenantID, fmt.Sprintf("invoice-%d", inv.ID), model.Notification{
			Type:    model.NotificationInvoiceDue,
			Title:   fmt.Sprintf("Invoice %s due soon", inv.Number),
			Message: fmt.Sprintf("Invoice %s for %s is due in %d day(s).", inv.Number, inv.CustomerName, days),
			DueDate: inv.DueDate,
			Link:    fmt.Sprintf("/invoices/%d", inv.ID),
		})
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

// CheckEmployeeExpiries runs the passport and visa rules against a single
// just-written employee so a near-term expiry surfaces without waiting for
// the next scheduled batch. It is called inline on the employee write path
// and therefore never propagates failures.
func (e *Engine) CheckEmployeeExpiries(ctx context.Context, emp *model.Employee) {
	recipients, err := e.adminRecipients(ctx)
	if err != nil {
		e.log.Warn("immediate expiry check skipped", zap.Uint("employee_id", emp.ID), zap.Error(err))
		return
	}

	checks := []struct {
		notifType string
		label     string
		expiry    *time.Time
	}{
		{model.NotificationPassportExpiry, "Passport", emp.PassportExpiry},
		{model.NotificationVisaExpiry, "Visa", emp.VisaExpiry},
	}

	for _, check := range checks {
		if check.expiry == nil {
			continue
		}
		days := e.daysUntil(*check.expiry)
		if days < 0 || days > documentLookaheadDays {
			continue
		}

		_, err := e.fanOut(ctx, recipients, emp.TenantID, fmt.Sprintf("employee-%d", emp.ID), model.Notification{
			Type:    check.notifType,
			Title:   fmt.Sprintf("%s expiring: %s", check.label, emp.Name),
			Message: fmt.Sprintf("%s of %s expires in %d day(s).", check.label, emp.Name, days),
			DueDate: check.expiry,
			Link:    fmt.Sprintf("/hr/employees/%d", emp.ID),
		})
		if err != nil {
			e.log.Warn("immediate expiry check failed",
				zap.Uint("employee_id", emp.ID),
				zap.String("type", check.notifType),
				zap.Error(err))
		}
	}
}
