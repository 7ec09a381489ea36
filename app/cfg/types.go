package cfg

type Cfg struct {
	// Content store
	GraphQLEndpoint string
	StoreTimeout    int // seconds

	// Redirect policy and rendering
	PolicyFile string
	Locale     string

	// HTTP server
	Port         string
	APIAccessKey string

	// Resolution log
	DBPath            string
	WorkerCount       int
	SchedulerInterval int // seconds
	LogRetentionDays  int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
