package domain

// Presentation is how a client should render a status or priority.
type Presentation struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var applicationPresentation = map[Status]Presentation{
	StatusDraft:            {Label: "Draft", Color: "gray", Icon: "edit"},
	StatusSubmitted:        {Label: "Submitted", Color: "blue", Icon: "send"},
	StatusUnderReview:      {Label: "Under Review", Color: "amber", Icon: "eye"},
	StatusPendingDocuments: {Label: "Pending Documents", Color: "orange", Icon: "file-plus"},
	StatusApproved:         {Label: "Approved", Color: "green", Icon: "check-circle"},
	StatusRejected:         {Label: "Rejected", Color: "red", Icon: "x-circle"},
	StatusWithdrawn:        {Label: "Withdrawn", Color: "slate", Icon: "undo"},
}

var scholarshipPresentation = map[ScholarshipStatus]Presentation{
	ScholarshipDraft:     {Label: "Draft", Color: "gray", Icon: "edit"},
	ScholarshipActive:    {Label: "Active", Color: "green", Icon: "unlock"},
	ScholarshipClosed:    {Label: "Closed", Color: "slate", Icon: "lock"},
	ScholarshipCancelled: {Label: "Cancelled", Color: "red", Icon: "ban"},
}

var paymentPresentation = map[PaymentStatus]Presentation{
	PaymentPending:    {Label: "Pending", Color: "amber", Icon: "clock"},
	PaymentProcessing: {Label: "Processing", Color: "blue", Icon: "loader"},
	PaymentCompleted:  {Label: "Completed", Color: "green", Icon: "check-circle"},
	PaymentFailed:     {Label: "Failed", Color: "red", Icon: "alert-triangle"},
	PaymentCancelled:  {Label: "Cancelled", Color: "slate", Icon: "ban"},
}

var priorityPresentation = map[Priority]Presentation{
	PriorityLow:    {Label: "Low", Color: "gray", Icon: "arrow-down"},
	PriorityMedium: {Label: "Medium", Color: "blue", Icon: "minus"},
	PriorityHigh:   {Label: "High", Color: "orange", Icon: "arrow-up"},
	PriorityUrgent: {Label: "Urgent", Color: "red", Icon: "alert-octagon"},
}

// Presentation returns the display attributes of s.
func (s Status) Presentation() Presentation {
	return applicationPresentation[s]
}

// Presentation returns the display attributes of s.
func (s ScholarshipStatus) Presentation() Presentation {
	return scholarshipPresentation[s]
}

// Presentation returns the display attributes of s.
func (s PaymentStatus) Presentation() Presentation {
	return paymentPresentation[s]
}

// Presentation returns the display attributes of p.
func (p Priority) Presentation() Presentation {
	return priorityPresentation[p]
}

// PresentationTable is the full rendering catalogue served to clients.
type PresentationTable struct {
	ApplicationStatuses map[Status]Presentation            `json:"applicationStatuses"`
	ScholarshipStatuses map[ScholarshipStatus]Presentation `json:"scholarshipStatuses"`
	PaymentStatuses     map[PaymentStatus]Presentation     `json:"paymentStatuses"`
	Priorities          map[Priority]Presentation          `json:"priorities"`
}

// Presentations returns a copy of every presentation table.
func Presentations() PresentationTable {
	t := PresentationTable{
		ApplicationStatuses: make(map[Status]Presentation, len(applicationPresentation)),
		ScholarshipStatuses: make(map[ScholarshipStatus]Presentation, len(scholarshipPresentation)),
		PaymentStatuses:     make(map[PaymentStatus]Presentation, len(paymentPresentation)),
		Priorities:          make(map[Priority]Presentation, len(priorityPresentation)),
	}
	for k, v := range applicationPresentation {
		t.ApplicationStatuses[k] = v
	}
	for k, v := range scholarshipPresentation {
		t.ScholarshipStatuses[k] = v
	}
	for k, v := range paymentPresentation {
		t.PaymentStatuses[k] = v
	}
	for k, v := range priorityPresentation {
		t.Priorities[k] = v
	}
	return t
}
