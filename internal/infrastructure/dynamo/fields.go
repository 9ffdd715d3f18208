package dynamo

// DynamoDB attribute names used in keys, conditions and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID     = "user_id"
	fieldUsername   = "username"
	fieldIsVerified = "is_verified"
	fieldOTP        = "otp"
	fieldUpdatedAt  = "updated_at"
	fieldAddressID  = "address_id"
	fieldCouponID   = "coupon_id"
	fieldCode       = "code"
)
