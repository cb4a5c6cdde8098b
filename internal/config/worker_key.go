package config

type WorkerKeyStruct struct {
	PersistAnswersQueue string
	PersistHistoryQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue: "persist_answers_queue",
	PersistHistoryQueue: "persist_history_queue",
}
