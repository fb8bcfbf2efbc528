package job

// IngestTask is one unit of pipeline work. Reprocess tasks reset the
// document before re-running.
type IngestTask struct {
	DocumentId string
	TenantId   string
	TraceId    string
	Reprocess  bool
}

type Service struct {
	TaskChannel       chan IngestTask
	RequestCount      int64
	DispatcherChannel chan bool
}

type ServiceConfig struct {
	TaskChannel       chan IngestTask
	RequestCount      int64
	DispatcherChannel chan bool
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		TaskChannel:       cfg.TaskChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
	}
}
