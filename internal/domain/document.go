package domain

// Upload category values accepted by the backend
const (
	CategoryNDA           = "nda"
	CategoryEmployee      = "employee_contract"
	CategoryLoanAgreement = "loan_agreement"
)

// DefaultCategoryKey is the listing filter applied before the user picks one.
const DefaultCategoryKey = "all"

// UploadCategories returns the valid contract_category values for uploads
func UploadCategories() []string {
	return []string{CategoryNDA, CategoryEmployee, CategoryLoanAgreement}
}

// ValidUploadCategory reports whether category is an accepted upload tag
func ValidUploadCategory(category string) bool {
	for _, c := range UploadCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// ContractCategory is one entry of the category filter
type ContractCategory struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ContractCategories returns the listing filter choices
func ContractCategories() []ContractCategory {
	return []ContractCategory{
		{Key: "all", Label: "All Contracts"},
		{Key: "nda", Label: "NDA"},
		{Key: "employment_agreements", Label: "Employment Agreements"},
		{Key: "loan_agreements", Label: "Loan Agreements"},
	}
}

// Document identifies one stored contract file. S3URL is the stable storage
// locator and the multi-select key; ViewableURL is presigned and short-lived.
type Document struct {
	QdrantID    string `json:"qdrant_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Category    string `json:"category,omitempty"`
	Collection  string `json:"collection,omitempty"`
	Date        string `json:"date,omitempty"`
	S3URL       string `json:"s3_url"`
	ViewableURL string `json:"viewable_url,omitempty"`
}

// DisplayName returns the best available label for a document
func (d Document) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	if d.Title != "" {
		return d.Title
	}
	return "Unnamed"
}

// ContractListResponse is the response for listing contracts by category
type ContractListResponse struct {
	Category string     `json:"category,omitempty"`
	Results  []Document `json:"results"`
}

// UploadResponse is returned after a contract upload
type UploadResponse struct {
	QdrantID    string `json:"qdrant_id"`
	S3URL       string `json:"s3_url,omitempty"`
	ViewableURL string `json:"viewable_url,omitempty"`
}
