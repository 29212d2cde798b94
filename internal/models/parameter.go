package models

// ParameterType names a list of configurable values.
type ParameterType string

const (
	ParamDepositType     ParameterType = "deposit_type"
	ParamAnomalyType     ParameterType = "anomaly_type"
	ParamPaymentMethod   ParameterType = "payment_method"
	ParamExpenseCategory ParameterType = "expense_category"
	ParamExpenseType     ParameterType = "expense_type"
	ParamGeneralConfig   ParameterType = "general_config"
)

// Parameter is one entry of an enumeration, or one general_config key/value
// row.
type Parameter struct {
	Base
	Type        ParameterType `gorm:"size:30;not null;index" json:"type"`
	Key         string        `gorm:"size:50;index" json:"key,omitempty"`
	Label       string        `gorm:"size:255" json:"label"`
	Value       string        `gorm:"size:255" json:"value"`
	ParentValue string        `gorm:"size:100" json:"parent_value,omitempty"`
	Order       int           `gorm:"column:sort_order;default:0" json:"order"`
	Active      bool          `gorm:"not null" json:"active"`
}

func (Parameter) TableName() string { return "parameters" }

// ParameterPatch holds optional parameter fields.
type ParameterPatch struct {
	Label       *string `json:"label"`
	Value       *string `json:"value"`
	ParentValue *string `json:"parent_value"`
	Order       *int    `json:"order"`
	Active      *bool   `json:"active"`
}

// Changes returns the columns present in the patch.
func (p ParameterPatch) Changes() Changes {
	c := Changes{}
	c.setString("label", p.Label)
	c.setString("value", p.Value)
	c.setString("parent_value", p.ParentValue)
	if p.Order != nil {
		c["sort_order"] = *p.Order
	}
	if p.Active != nil {
		c["active"] = *p.Active
	}
	return c
}
