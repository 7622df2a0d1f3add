package services

import (
	"testing"

	"cryptostock/internal/models"
	"cryptostock/internal/pagination"
	"cryptostock/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)
	email := testutil.UniqueEmail()

	svc.Log(email, "UPDATE_WALLET", "wallet", "w-1", "127.0.0.1", map[string]interface{}{"balanceUsd": 10.5})
	svc.Log(email, "APPLY_TRADE", "holding", "h-1", "127.0.0.1", nil)

	var count int64
	db.Model(&models.AuditLog{}).Where("email = ?", email).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 audit entries, got %d", count)
	}

	var wallet models.AuditLog
	db.Where("email = ? AND action = ?", email, "UPDATE_WALLET").First(&wallet)
	if wallet.Changes != `{"balanceUsd":10.5}` {
		t.Errorf("unexpected changes: %s", wallet.Changes)
	}
	if wallet.ResourceID != "w-1" || wallet.IPAddress != "127.0.0.1" {
		t.Errorf("unexpected entry: %+v", wallet)
	}

	var holding models.AuditLog
	db.Where("email = ? AND action = ?", email, "APPLY_TRADE").First(&holding)
	if holding.Changes != "" {
		t.Errorf("expected empty changes, got %s", holding.Changes)
	}
}

func TestAuditList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)
	email := testutil.UniqueEmail()

	for _, action := range []string{"RECORD_TRADE", "APPLY_BUY", "UPDATE_WALLET"} {
		svc.Log(email, action, "trade", "", "", nil)
	}
	svc.Log(testutil.UniqueEmail(), "UPDATE_WALLET", "wallet", "", "", nil)

	page, err := svc.List(email, pagination.PageRequest{Page: 1, PageSize: 2})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 3 || page.TotalPages != 2 {
		t.Fatalf("expected 3 items over 2 pages, got %d over %d", page.TotalItems, page.TotalPages)
	}
	if len(page.Data) != 2 || page.Data[0].Action != "UPDATE_WALLET" {
		t.Errorf("expected newest entry first, got %+v", page.Data)
	}

	empty, err := svc.List(testutil.UniqueEmail(), pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if empty.TotalItems != 0 || empty.Data == nil {
		t.Errorf("expected empty non-nil page, got %+v", empty)
	}
}
