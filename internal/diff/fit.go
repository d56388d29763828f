package diff

import (
	"fmt"

	"sheetsql/internal/core"
)

// Issue is a reason values shaped like one column may not store cleanly in
// another.
type Issue struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Column      string   `json:"column"`
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityBreaking
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityBreaking:
		return "BREAKING"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the severity by name in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FitAnalyzer checks whether data described by one table definition can be
// inserted into another.
type FitAnalyzer struct {
	Issues []Issue
}

func NewFitAnalyzer() *FitAnalyzer {
	return &FitAnalyzer{}
}

// Analyze matches data's columns to target's by name. Breaking issues mean
// rows will fail; warnings mean some values may be changed or rejected.
func (a *FitAnalyzer) Analyze(target, data *core.Table) []Issue {
	for _, d := range data.Columns {
		t := target.FindColumn(d.Name)
		if t == nil {
			a.add(SeverityBreaking, d.Name, "Column does not exist in %s", target.QualifiedName())
			continue
		}
		a.analyzeType(t, d)
		a.analyzeLength(t, d)
		a.analyzeNullability(t, d)
	}
	for _, t := range target.Columns {
		if data.FindColumn(t.Name) != nil {
			continue
		}
		if requiresValue(t) {
			a.add(SeverityBreaking, t.Name, "NOT NULL column without a default receives no value")
			continue
		}
		a.add(SeverityInfo, t.Name, "Column receives no value and keeps its default")
	}
	return a.Issues
}

// HasBreaking reports whether any issue will make rows fail.
func HasBreaking(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityBreaking {
			return true
		}
	}
	return false
}

func (a *FitAnalyzer) add(sev Severity, column, format string, args ...any) {
	a.Issues = append(a.Issues, Issue{Severity: sev, Column: column, Description: fmt.Sprintf(format, args...)})
}

func requiresValue(c *core.Column) bool {
	return !c.Nullable && c.DefaultValue == nil && !c.AutoIncrement
}

func (a *FitAnalyzer) analyzeType(t, d *core.Column) {
	tt, dt := t.Type, d.Type
	if tt.Kind == kindOf(dt) && tt.Kind != core.KindDecimal {
		return
	}
	textTarget := tt.Kind == core.KindChar || tt.Kind == core.KindText || tt.Kind == core.KindOther

	switch dt.Kind {
	case core.KindChar, core.KindText:
		switch {
		case tt.IsNumeric(), tt.IsDateLike():
			a.add(SeverityBreaking, t.Name, "Text values cannot be stored in %s", tt)
		case tt.Kind == core.KindEnum || tt.Kind == core.KindSet:
			a.add(SeverityWarning, t.Name, "Values must be members of %s", tt)
		case tt.Kind == core.KindJSON:
			a.add(SeverityWarning, t.Name, "Text values must be valid JSON documents")
		}
	case core.KindInteger, core.KindBoolean:
		switch {
		case tt.IsDateLike():
			a.add(SeverityBreaking, t.Name, "Numbers cannot be stored in %s", tt)
		case tt.Kind == core.KindBoolean && dt.Kind == core.KindInteger:
			a.add(SeverityWarning, t.Name, "Integers are stored in %s, which is meant for 0 and 1", tt)
		case tt.Kind == core.KindDecimal:
			a.analyzeDecimalRange(t, d)
		case textTarget:
			a.add(SeverityInfo, t.Name, "Numbers will be stored as text in %s", tt)
		}
	case core.KindDecimal, core.KindDouble:
		switch {
		case tt.IsDateLike():
			a.add(SeverityBreaking, t.Name, "Numbers cannot be stored in %s", tt)
		case tt.Kind == core.KindInteger || tt.Kind == core.KindBoolean:
			a.add(SeverityWarning, t.Name, "Fractions will be rounded to whole numbers in %s", tt)
		case tt.Kind == core.KindDecimal:
			a.analyzeDecimalRange(t, d)
		case textTarget:
			a.add(SeverityInfo, t.Name, "Numbers will be stored as text in %s", tt)
		}
	case core.KindDateTime, core.KindDate, core.KindTimestamp:
		switch {
		case tt.IsNumeric():
			a.add(SeverityBreaking, t.Name, "Dates cannot be stored in %s", tt)
		case tt.Kind == core.KindDate:
			a.add(SeverityWarning, t.Name, "The time of day is dropped when stored in %s", tt)
		case tt.Kind == core.KindTime:
			a.add(SeverityWarning, t.Name, "Only the time of day is kept in %s", tt)
		case textTarget:
			a.add(SeverityInfo, t.Name, "Dates will be stored as text in %s", tt)
		}
	}
}

// kindOf folds the integer-like kinds together so int(10) data into a
// bigint column is not reported.
func kindOf(st core.StorageType) core.TypeKind {
	if st.Kind == core.KindBoolean {
		return core.KindInteger
	}
	return st.Kind
}

func (a *FitAnalyzer) analyzeDecimalRange(t, d *core.Column) {
	tt, dt := t.Type, d.Type
	if tt.Precision == 0 {
		return
	}
	targetWhole := tt.Precision - tt.Scale
	dataWhole := dt.Length
	dataScale := 0
	if dt.Kind == core.KindDecimal {
		dataWhole = dt.Precision - dt.Scale
		dataScale = dt.Scale
	}
	if dt.Kind == core.KindDouble {
		a.add(SeverityWarning, t.Name, "Floating point values may lose precision in %s", tt)
		return
	}
	if dataWhole > targetWhole {
		a.add(SeverityBreaking, t.Name, "Values with %d integer digits exceed the range of %s", dataWhole, tt)
		return
	}
	if dataScale > tt.Scale {
		a.add(SeverityWarning, t.Name, "Values with %d decimals will be rounded to %d in %s", dataScale, tt.Scale, tt)
	}
}

func (a *FitAnalyzer) analyzeLength(t, d *core.Column) {
	if t.Type.Length == 0 || d.Type.Length == 0 {
		return
	}
	switch t.Type.Kind {
	case core.KindChar, core.KindBinary:
	default:
		return
	}
	if d.Type.Kind != core.KindChar && d.Type.Kind != core.KindText {
		return
	}
	if d.Type.Length > t.Type.Length {
		a.add(SeverityWarning, t.Name, "Values up to %d characters do not fit %s", d.Type.Length, t.Type)
	}
}

func (a *FitAnalyzer) analyzeNullability(t, d *core.Column) {
	if d.Nullable && requiresValue(t) {
		a.add(SeverityWarning, t.Name, "Blank cells will be rejected by a NOT NULL column")
	}
}
