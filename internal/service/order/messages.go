package order

// User-facing messages. Each validation rule maps to exactly one message.
const (
	MsgReferenceRequired   = "Reference is required."
	MsgCompanyRequired     = "Company is required."
	MsgDescriptionRequired = "Description is required."
	MsgInvalidStatus       = "Invalid status."
	MsgReferenceTaken      = "Reference already exists. Must be unique."
	MsgNotFound            = "Order not found."

	MsgCreated = "Order created successfully."
	MsgUpdated = "Order updated successfully."
	MsgDeleted = "Order deleted successfully."
)
