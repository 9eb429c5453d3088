package config

type WorkerKeyStruct struct {
	PersistIntegrityQueue string
	PersistResultsQueue   string
	NotifyResultsQueue    string
}

var WorkerKey = &WorkerKeyStruct{
	PersistIntegrityQueue: "persist_integrity_queue",
	PersistResultsQueue:   "persist_results_queue",
	NotifyResultsQueue:    "notify_results_queue",
}
