package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/usecase"
)

var ru = message.NewPrinter(language.Russian)

func printForecast(w io.Writer, sf *usecase.ScopeForecast) {
	ru.Fprintf(w, "\nПРОГНОЗ (%s)\n", sf.Scope)
	if sf.Error != "" {
		ru.Fprintf(w, "  ошибка: %s\n", sf.Error)
		return
	}
	ru.Fprintf(w, "  Дней истории: %d, точек прогноза: %d\n", len(sf.Series), len(sf.Points))
	if sf.Evaluation.Defined() {
		ru.Fprintf(w, "  MAPE: %.2f%% (%s), дней в оценке: %d\n", sf.Evaluation.MAPE, sf.Evaluation.Band, sf.Evaluation.Used)
	} else {
		ru.Fprintf(w, "  MAPE: не определена\n")
	}
	if sf.Run == nil {
		return
	}
	s := sf.Run.Summary
	ru.Fprintf(w, "  Прогноз на %d периодов: %.0f\n", s.FuturePoints, s.FutureTotal)
	for _, p := range s.Tail {
		ru.Fprintf(w, "    %s  %.0f  [%.0f; %.0f]\n", p.Date, p.Yhat, p.Lower, p.Upper)
	}
	ru.Fprintf(w, "  run: %s\n", sf.Run.ID)
}

func printComparison(w io.Writer, cmp *usecase.CategoryComparison) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "КАТЕГОРИЯ\tMAPE\tОЦЕНКА\tПРОГНОЗ\tОШИБКА")
	for _, r := range cmp.Results {
		mape, total := "-", "-"
		if r.Evaluation.Defined() {
			mape = ru.Sprintf("%.2f%%", r.Evaluation.MAPE)
		}
		if r.Run != nil && r.Error == "" {
			total = ru.Sprintf("%.0f", r.Run.Summary.FutureTotal)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Scope, mape, r.Evaluation.Band, total, r.Error)
	}
	_ = tw.Flush()
	if cmp.Best != "" {
		fmt.Fprintf(w, "Лучшая точность: %s\n", cmp.Best)
	}
	if cmp.Failed > 0 {
		fmt.Fprintf(w, "Не удалось: %d\n", cmp.Failed)
	}
}

func printRuns(w io.Writer, runs []*models.ForecastRun) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCOPE\tSTATUS\tMAPE\tHORIZON\tCREATED")
	for _, r := range runs {
		mape := "-"
		if r.MAPE != nil {
			mape = fmt.Sprintf("%.2f", *r.MAPE)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%s\t%s\n",
			r.ID, r.Scope, r.Status, mape, r.Horizon.Periods, r.Horizon.Freq, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = tw.Flush()
}
