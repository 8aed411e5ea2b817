package metadata

// HealthService is the interface for central health tracking.
type HealthService interface {
	RegisterItemStr(category, id, name string)
	SetErrorStr(category, id, message string)
	ClearStatusStr(category, id string)
}

const healthCategory = "metadata"
