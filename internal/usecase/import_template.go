package usecase

const TemplateFileName = "leads_template.csv"

// LeadsTemplateCSV is offered to users as a formatting guide. Existing
// spreadsheets are built from it, keep it byte-for-byte.
const LeadsTemplateCSV = "Name,Email,Phone,Deal Value,Stage,Notes\n" +
	`"John Smith","john@example.com","+1-555-0123","5000","New","Interested in enterprise solution"` + "\n" +
	`"Sarah Johnson","sarah@company.com","+1-555-0124","12000","Contacted","Follow up next week"`
