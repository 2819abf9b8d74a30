package handlers

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"ecommerce-dashboard/internal/format"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testMoney(t *testing.T) *format.Money {
	t.Helper()
	m, err := format.NewMoney("AUD", "es-CO")
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func at(month time.Month, day int) time.Time {
	return time.Date(2018, month, day, 10, 0, 0, 0, time.UTC)
}

// createTestDashboard seeds three customers over January and February 2018.
func createTestDashboard(t *testing.T) *services.Dashboard {
	t.Helper()
	d, err := services.NewDashboard(services.Options{ViewCacheSize: 8, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	d.SetData([]models.OrderLine{
		{OrderID: "o1", CustomerID: "c1", CustomerCity: "rio", CustomerState: "RJ", ApprovedAt: at(time.January, 2), PurchasedAt: at(time.January, 2), ProductCategory: "toys", OrderItemID: 1, Price: 100},
		{OrderID: "o2", CustomerID: "c2", CustomerCity: "sao paulo", CustomerState: "SP", ApprovedAt: at(time.January, 10), PurchasedAt: at(time.January, 10), ProductCategory: "books", OrderItemID: 1, Price: 50},
		{OrderID: "o2", CustomerID: "c2", CustomerCity: "sao paulo", CustomerState: "SP", ApprovedAt: at(time.January, 10), PurchasedAt: at(time.January, 10), ProductCategory: "books", OrderItemID: 2, Price: 50},
		{OrderID: "o3", CustomerID: "c3", CustomerCity: "curitiba", CustomerState: "PR", ApprovedAt: at(time.February, 20), PurchasedAt: at(time.February, 20), ProductCategory: "garden", OrderItemID: 1, Price: 30},
	})
	return d
}

func emptyDashboard(t *testing.T) *services.Dashboard {
	t.Helper()
	d, err := services.NewDashboard(services.Options{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	return d
}
