package local

const (
	LocalPersistentName string = "local"

	FORMAT_JSON string = "json"
	FORMAT_YAML string = "yaml"

	LocalStoreDir  string = "conf"
	LocalStoreFile string = "dbroute"

	// execution logs kept in the local file, oldest dropped first
	LOCAL_HISTORY_CAPACITY int = 1000
)
