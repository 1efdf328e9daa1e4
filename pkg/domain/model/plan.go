package model

import "fmt"

// WorkItem is one (region, interval, variable) request of a job
type WorkItem struct {
	Index    int
	Region   Region
	Interval Interval
	Variable Variable
}

// Label is the human readable progress label of the item
func (x WorkItem) Label() string {
	return fmt.Sprintf("%s - %s (%s~%s)", x.Region.Level3, x.Variable.Name, x.Interval.Start, x.Interval.End)
}

// FileStem is the portal file name of the item without extension
func (x WorkItem) FileStem() string {
	return fmt.Sprintf("%s_%s_%s_%s", x.Region.Level3, x.Variable.Name, x.Interval.Start, x.Interval.End)
}

// PlanJob builds the ordered work items: regions outer, intervals middle, variables inner.
// Index is 1-based.
func PlanJob(regions []Region, intervals []Interval, variables []Variable) []WorkItem {
	items := make([]WorkItem, 0, len(regions)*len(intervals)*len(variables))
	for _, r := range regions {
		for _, iv := range intervals {
			for _, v := range variables {
				items = append(items, WorkItem{
					Index:    len(items) + 1,
					Region:   r,
					Interval: iv,
					Variable: v,
				})
			}
		}
	}
	return items
}
