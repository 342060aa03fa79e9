package services

import (
	"math"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/models"
)

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// RecalculateTotals refreshes every derived total of the document, bottom-up:
// item totals, chapter totals, lot totals and percentages, then document
// HT/TVA/TTC. Must run inside the same transaction as the structural write
// that triggered it.
func RecalculateTotals(d *models.DQE) {
	var docTotal float64
	for li := range d.Lots {
		lot := &d.Lots[li]
		var lotTotal float64
		for ci := range lot.Chapters {
			ch := &lot.Chapters[ci]
			var chTotal float64
			for ii := range ch.Items {
				it := &ch.Items[ii]
				it.TotalHT = round2(it.Quantity * it.UnitPriceHT)
				chTotal += it.TotalHT
			}
			ch.TotalHT = round2(chTotal)
			lotTotal += ch.TotalHT
		}
		lot.TotalHT = round2(lotTotal)
		docTotal += lot.TotalHT
	}
	d.TotalHT = round2(docTotal)

	for li := range d.Lots {
		if d.TotalHT > 0 {
			d.Lots[li].Percentage = round2(d.Lots[li].TotalHT / d.TotalHT * 100)
		} else {
			d.Lots[li].Percentage = 0
		}
	}

	d.TotalTVA = round2(d.TotalHT * d.TauxTVA / 100)
	d.TotalTTC = round2(d.TotalHT + d.TotalTVA)
}
