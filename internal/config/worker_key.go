package config

type WorkerKeyStruct struct {
	CompensationQueue string
}

var WorkerKey = &WorkerKeyStruct{
	CompensationQueue: "compensation_queue",
}
