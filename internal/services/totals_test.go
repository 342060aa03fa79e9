package services

import (
	"testing"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/models"
)

func sampleDocument() *models.DQE {
	return &models.DQE{
		TauxTVA: 18,
		Lots: []models.Lot{
			{
				Code: "LOT-A",
				Chapters: []models.Chapter{
					{
						Code: "CH-1",
						Items: []models.Item{
							{Code: "IT-1", Quantity: 10, UnitPriceHT: 1000, DebourseSec: 500},
						},
					},
				},
			},
			{
				Code: "LOT-B",
				Chapters: []models.Chapter{
					{
						Code: "CH-2",
						Items: []models.Item{
							{Code: "IT-2", Quantity: 5, UnitPriceHT: 2000, DebourseSec: 800},
						},
					},
				},
			},
		},
	}
}

func TestRecalculateTotals(t *testing.T) {
	doc := sampleDocument()
	RecalculateTotals(doc)

	if doc.Lots[0].Chapters[0].Items[0].TotalHT != 10000 {
		t.Fatalf("item total = %v, expected 10000", doc.Lots[0].Chapters[0].Items[0].TotalHT)
	}
	if doc.Lots[0].Chapters[0].TotalHT != 10000 {
		t.Fatalf("chapter total = %v, expected 10000", doc.Lots[0].Chapters[0].TotalHT)
	}
	if doc.Lots[0].TotalHT != 10000 || doc.Lots[1].TotalHT != 10000 {
		t.Fatalf("lot totals = %v / %v, expected 10000 each", doc.Lots[0].TotalHT, doc.Lots[1].TotalHT)
	}
	if doc.TotalHT != 20000 {
		t.Fatalf("document HT = %v, expected 20000", doc.TotalHT)
	}
	if doc.TotalTVA != 3600 {
		t.Fatalf("document TVA = %v, expected 3600", doc.TotalTVA)
	}
	if doc.TotalTTC != 23600 {
		t.Fatalf("document TTC = %v, expected 23600", doc.TotalTTC)
	}
	if doc.Lots[0].Percentage != 50 || doc.Lots[1].Percentage != 50 {
		t.Fatalf("lot percentages = %v / %v, expected 50 each", doc.Lots[0].Percentage, doc.Lots[1].Percentage)
	}
}

func TestRecalculateTotalsRounding(t *testing.T) {
	doc := &models.DQE{
		TauxTVA: 18,
		Lots: []models.Lot{
			{Chapters: []models.Chapter{{Items: []models.Item{
				{Quantity: 3, UnitPriceHT: 0.1},
			}}}},
		},
	}
	RecalculateTotals(doc)
	if doc.TotalHT != 0.3 {
		t.Fatalf("document HT = %v, expected 0.3", doc.TotalHT)
	}
	if doc.TotalTTC != round2(doc.TotalHT+doc.TotalTVA) {
		t.Fatalf("TTC %v != HT %v + TVA %v", doc.TotalTTC, doc.TotalHT, doc.TotalTVA)
	}
}

func TestRecalculateTotalsEmptyDocument(t *testing.T) {
	doc := &models.DQE{TauxTVA: 18}
	RecalculateTotals(doc)
	if doc.TotalHT != 0 || doc.TotalTVA != 0 || doc.TotalTTC != 0 {
		t.Fatalf("expected zero totals, got %v / %v / %v", doc.TotalHT, doc.TotalTVA, doc.TotalTTC)
	}
}

func TestRecalculateTotalsZeroTotalPercentage(t *testing.T) {
	doc := &models.DQE{
		Lots: []models.Lot{
			{Chapters: []models.Chapter{{Items: []models.Item{{Quantity: 0, UnitPriceHT: 100}}}}},
		},
	}
	RecalculateTotals(doc)
	if doc.Lots[0].Percentage != 0 {
		t.Fatalf("expected percentage 0 on empty document, got %v", doc.Lots[0].Percentage)
	}
}
