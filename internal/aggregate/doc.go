// Package aggregate derives display structures from a filtered measurement
// subset: map location groups, trend-eligible combinations with progressive
// selector options, and median statistics for charts. Everything here is a
// pure function of its inputs, rebuilt per request and never cached; the
// only descriptive statistics are counts, percentages, and medians.
package aggregate
