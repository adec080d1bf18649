package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"classroom-scheduler/internal/domain"
)

// dateInterval 表示周期序列中一次课程的起止时间。
type dateInterval struct {
	Begin time.Time
	End   time.Time
}

// datesByRate 从 begin 起逐天推进，落在 weeks 内的日期生成一次课程，
// 直到凑满 rate 次。时长取 end-begin。
func datesByRate(begin, end time.Time, weeks []domain.Week, rate int) []dateInterval {
	duration := end.Sub(begin)

	var result []dateInterval
	for day := begin; len(result) < rate; day = day.AddDate(0, 0, 1) {
		if inWeeks(day, weeks) {
			result = append(result, dateInterval{Begin: day, End: day.Add(duration)})
		}
	}
	return result
}

// datesByEndTime 从 begin 起逐天推进到 cutoff (含当天)，落在 weeks 内的
// 日期生成一次课程。cutoff 早于 begin 时返回空。
func datesByEndTime(begin, end, cutoff time.Time, weeks []domain.Week) []dateInterval {
	if cutoff.Before(begin) {
		return nil
	}
	if cutoff.Equal(begin) {
		return []dateInterval{{Begin: begin, End: end}}
	}

	duration := end.Sub(begin)

	var result []dateInterval
	for day := begin; !day.After(cutoff); day = day.AddDate(0, 0, 1) {
		if inWeeks(day, weeks) {
			result = append(result, dateInterval{Begin: day, End: day.Add(duration)})
		}
	}
	return result
}

func inWeeks(t time.Time, weeks []domain.Week) bool {
	day := domain.Week(t.Weekday())
	for _, week := range weeks {
		if week == day {
			return true
		}
	}
	return false
}

// formatWeeks 把星期序号编码为升序的逗号分隔字符串，如 "1,3,5"。
func formatWeeks(weeks []domain.Week) string {
	sorted := make([]int, 0, len(weeks))
	for _, week := range weeks {
		sorted = append(sorted, int(week))
	}
	sort.Ints(sorted)

	parts := make([]string, 0, len(sorted))
	for _, week := range sorted {
		parts = append(parts, strconv.Itoa(week))
	}
	return strings.Join(parts, ",")
}

// parseWeeks 解码 formatWeeks 的结果。非法片段被忽略。
func parseWeeks(s string) []domain.Week {
	if s == "" {
		return nil
	}
	var weeks []domain.Week
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		weeks = append(weeks, domain.Week(n))
	}
	return weeks
}
