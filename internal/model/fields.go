package model

// Имена полей заказа, по которым строятся предикаты выборки.
const (
	FieldID                     = "id"
	FieldCustomer               = "customer"
	FieldAccountType            = "account_type"
	FieldStoreAccount           = "store_account"
	FieldCustomerAccountAccount = "customer_account.account"
	FieldStartDate              = "start_date"
	FieldEndDate                = "end_date"
)

// Value возвращает значение поля заказа для проверки предикатов в памяти.
// Пустые необязательные поля считаются отсутствующими, как NULL в базе.
func (o Order) Value(field string) (any, bool) {
	switch field {
	case FieldID:
		return o.ID, true
	case FieldCustomer:
		return o.Customer, true
	case FieldAccountType:
		return string(o.AccountType), true
	case FieldStoreAccount:
		if o.StoreAccount == "" {
			return nil, false
		}
		return o.StoreAccount, true
	case FieldCustomerAccountAccount:
		if o.CustomerAccount == nil || o.CustomerAccount.Account == "" {
			return nil, false
		}
		return o.CustomerAccount.Account, true
	case FieldStartDate:
		return o.StartDate, true
	case FieldEndDate:
		if o.EndDate.IsZero() {
			return nil, false
		}
		return o.EndDate, true
	}
	return nil, false
}
