package models

// StatusAggregate is a count (and optional amount sum) for one status value.
type StatusAggregate struct {
	Status string  `db:"status"`
	Count  int64   `db:"count"`
	Amount float64 `db:"amount"`
}

// ScholarshipPayout sums payments for one scholarship.
type ScholarshipPayout struct {
	ScholarshipID int64   `db:"scholarship_id"`
	Name          string  `db:"name"`
	Disbursed     float64 `db:"disbursed"`
	Outstanding   float64 `db:"outstanding"`
	Recipients    int64   `db:"recipients"`
}
