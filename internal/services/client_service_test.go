package services

import (
	"testing"

	"cryptoledger/internal/models"
	"cryptoledger/internal/pagination"
	"cryptoledger/internal/testutil"
)

func TestCreateClient(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)

		client, err := svc.CreateClient("  Ada Lovelace ", "ada@example.com")
		testutil.AssertNoError(t, err)
		if client.ID == 0 {
			t.Fatal("expected non-zero client ID")
		}
		if client.Name != "Ada Lovelace" {
			t.Errorf("expected trimmed name, got %q", client.Name)
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)

		_, err := svc.CreateClient(" ", "ada@example.com")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)

		_, err := svc.CreateClient("Ada", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetClients(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewClientService(db)

	for i := 0; i < 3; i++ {
		testutil.CreateTestClient(t, db)
	}

	result, err := svc.GetClients(pagination.PageRequest{Page: 1, PageSize: 2})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 3 {
		t.Errorf("expected 3 total items, got %d", result.TotalItems)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 clients on page 1, got %d", len(result.Data))
	}
	if result.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", result.TotalPages)
	}
	if result.Data[0].ID >= result.Data[1].ID {
		t.Error("expected clients ordered by id")
	}
}

func TestGetClientByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)
		created := testutil.CreateTestClient(t, db)

		client, err := svc.GetClientByID(created.ID)
		testutil.AssertNoError(t, err)
		if client.Email != created.Email {
			t.Errorf("expected email %s, got %s", created.Email, client.Email)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)

		_, err := svc.GetClientByID(99999)
		testutil.AssertAppError(t, err, "CLIENT_NOT_FOUND")
	})
}

func TestUpdateClient(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)
		created := testutil.CreateTestClient(t, db)

		_, err := svc.UpdateClient(created.ID, "Grace Hopper", "grace@example.com")
		testutil.AssertNoError(t, err)

		client, err := svc.GetClientByID(created.ID)
		testutil.AssertNoError(t, err)
		if client.Name != "Grace Hopper" || client.Email != "grace@example.com" {
			t.Errorf("update not persisted: %+v", client)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)

		_, err := svc.UpdateClient(99999, "Grace", "grace@example.com")
		testutil.AssertAppError(t, err, "CLIENT_NOT_FOUND")
	})

	t.Run("empty_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)
		created := testutil.CreateTestClient(t, db)

		_, err := svc.UpdateClient(created.ID, "", "grace@example.com")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestDeleteClient(t *testing.T) {
	t.Run("removes_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)
		client := testutil.CreateTestClient(t, db)
		other := testutil.CreateTestClient(t, db)
		testutil.CreateTestTransaction(t, db, client.ID, "btc", models.ActionPurchase, "1")
		testutil.CreateTestTransaction(t, db, other.ID, "btc", models.ActionPurchase, "1")

		testutil.AssertNoError(t, svc.DeleteClient(client.ID))

		_, err := svc.GetClientByID(client.ID)
		testutil.AssertAppError(t, err, "CLIENT_NOT_FOUND")

		var remaining int64
		db.Model(&models.Transaction{}).Count(&remaining)
		if remaining != 1 {
			t.Errorf("expected only the other client's transaction to remain, got %d", remaining)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewClientService(db)

		err := svc.DeleteClient(99999)
		testutil.AssertAppError(t, err, "CLIENT_NOT_FOUND")
	})
}
