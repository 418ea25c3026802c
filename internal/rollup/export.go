package rollup

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/finport/finport/internal/metrics"
)

// WriteSnapshotCSV serialises a dashboard snapshot to CSV, one row per
// node, companies indented under their cluster.
func WriteSnapshotCSV(w io.Writer, snap Snapshot) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"Level", "Name",
		"Revenue Actual", "Revenue Budget", "Revenue Variance %",
		"Gross Profit Actual", "Gross Profit Budget",
		"PBT Actual", "PBT Budget", "PBT Achievement %",
		"Reporting", "Total", "Risk",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writeNodeRow(writer, snap.Group); err != nil {
		return err
	}
	for _, cluster := range snap.Clusters {
		if err := writeNodeRow(writer, cluster); err != nil {
			return err
		}
		for _, company := range cluster.Children {
			if err := writeNodeRow(writer, company); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeNodeRow(writer *csv.Writer, n Node) error {
	return writer.Write([]string{
		n.Level,
		n.Name,
		formatFloat(n.Totals.Revenue.Actual),
		formatFloat(n.Totals.Revenue.Budget),
		formatFloat(n.Totals.Revenue.VariancePercent),
		formatFloat(n.Totals.GrossProfit.Actual),
		formatFloat(n.Totals.GrossProfit.Budget),
		formatFloat(n.Totals.PBT.Actual),
		formatFloat(n.Totals.PBT.Budget),
		formatFloat(n.Totals.PBT.AchievementPercent),
		strconv.Itoa(n.CompaniesReporting),
		strconv.Itoa(n.CompaniesTotal),
		string(n.Risk),
	})
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", metrics.Round2(v))
}
