package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"SalesCast/internal/domain/models"
)

var (
	monthNames   = []string{"Янв", "Фев", "Мар", "Апр", "Май", "Июн", "Июл", "Авг", "Сен", "Окт", "Ноя", "Дек"}
	weekdayNames = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}
)

// Render writes a plain-text report. Numbers are grouped per the locale of tag.
func Render(w io.Writer, rep *models.Report, tag language.Tag) error {
	p := &printer{p: message.NewPrinter(tag), w: w}

	b := rep.Basic
	p.section("ОСНОВНАЯ СТАТИСТИКА")
	p.line("Строк: %d", b.Rows)
	if b.FirstDate.Valid {
		p.line("Период: %s – %s", b.FirstDate, b.LastDate)
	}
	p.line("Общая выручка: %.0f руб.", money(b.TotalRevenue))
	p.line("Общее количество: %d шт.", b.TotalQuantity)
	p.line("Средний чек: %.0f руб.", money(b.AverageCheck))
	p.line("Уникальных категорий: %d", b.UniqueCategories)
	p.line("Уникальных продуктов: %d", b.UniqueProducts)
	p.line("Уникальных регионов: %d", b.UniqueRegions)
	if b.UniqueClients > 0 {
		p.line("Уникальных клиентов: %d", b.UniqueClients)
	}

	if c := rep.Cleaning; c != nil {
		p.section("ОЧИСТКА ДАННЫХ")
		p.line("Исходных строк: %d, итоговых: %d, удалено: %d", c.InitialRows, c.FinalRows, c.TotalRemoved())
		for _, s := range c.SkippedConditions {
			p.line("Пропущено условие: %s", s)
		}
	}

	if len(rep.RevenueByCategory) > 0 {
		p.section("ВЫРУЧКА ПО КАТЕГОРИЯМ")
		for i, r := range rep.RevenueByCategory {
			p.line("%d. %s: %.0f руб. (%.1f%%)", i+1, r.Name, money(r.Value), r.Share)
		}
	}
	if len(rep.QuantityByCategory) > 0 {
		p.section("КОЛИЧЕСТВО ПРОДАЖ ПО КАТЕГОРИЯМ")
		for i, r := range rep.QuantityByCategory {
			p.line("%d. %s: %.0f шт.", i+1, r.Name, money(r.Value))
		}
	}
	if len(rep.AvgCheckByRegion) > 0 {
		p.section("СРЕДНИЙ ЧЕК ПО РЕГИОНАМ")
		for i, r := range rep.AvgCheckByRegion {
			p.line("%d. %s: %.0f руб.", i+1, r.Name, money(r.Value))
		}
	}
	if len(rep.TopProducts) > 0 {
		p.section("ЧАСТОТА ПРОДАЖ ПО ПРОДУКТАМ")
		for i, r := range rep.TopProducts {
			p.line("%d. %s: %d продаж", i+1, r.Name, r.Count)
		}
	}
	if len(rep.Weekdays) > 0 {
		p.section("ВЫРУЧКА ПО ДНЯМ НЕДЕЛИ")
		for _, d := range rep.Weekdays {
			p.line("%s: %.0f руб. (%d сделок)", weekdayNames[d.Weekday], money(d.Revenue), d.Transactions)
		}
	}
	if len(rep.ClientTypes) > 0 {
		p.section("АНАЛИЗ ПО ТИПУ КЛИЕНТА")
		for i, s := range rep.ClientTypes {
			p.line("%d. %s: %.0f руб. (%.1f%%), %d сделок, ср.чек: %.0f руб.",
				i+1, s.Name, money(s.Revenue), s.Share, s.Transactions, money(s.AverageCheck))
		}
	}
	if len(rep.Industries) > 0 {
		p.section("АНАЛИЗ ПО ОТРАСЛЯМ")
		for i, s := range rep.Industries {
			p.line("%d. %s: %.0f руб. (%.1f%%), %d клиентов, ср.чек: %.0f руб.",
				i+1, s.Name, money(s.Revenue), s.Share, s.UniqueClients, money(s.AverageCheck))
		}
	}
	if m := rep.Monthly; m != nil {
		p.section("ТРЕНД ВЫРУЧКИ")
		for _, mr := range m.Months {
			change := "N/A"
			if mr.Change != nil {
				change = p.p.Sprintf("%+.1f%%", *mr.Change)
			}
			p.line("%02d.%d  %.0f  %s  %.1f%%", mr.Month, mr.Year, money(mr.Revenue), change, mr.Share)
		}
		p.line("ИТОГО  %.0f", m.Total)
		p.line("• Средняя месячная выручка: %.0f руб.", m.Mean)
		p.line("• Максимальная выручка: %.0f руб.", m.Max)
		p.line("• Минимальная выручка: %.0f руб.", m.Min)
		p.line("• Стандартное отклонение: %.0f руб.", m.Std)
		if m.TotalGrowth != nil {
			p.line("• Общий рост за период: %+.1f%%", *m.TotalGrowth)
		}
		if m.BestMonth > 0 {
			p.line("• Самый прибыльный месяц: %s (%.0f руб.)", monthNames[m.BestMonth-1], m.BestMonthMean)
			p.line("• Самый непродажный месяц: %s (%.0f руб.)", monthNames[m.WorstMonth-1], m.WorstMonthMean)
			p.line("• Коэффициент сезонности: %.1fx", m.SeasonalityRatio)
		}
	}
	return p.err
}

func money(d decimal.Decimal) float64 { return d.InexactFloat64() }

type printer struct {
	p   *message.Printer
	w   io.Writer
	err error
}

func (p *printer) section(title string) {
	p.line("")
	p.line("%s", title)
	p.line("%s", strings.Repeat("=", 50))
}

func (p *printer) line(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, p.p.Sprintf(format, args...))
}
