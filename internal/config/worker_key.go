package config

type WorkerKeyStruct struct {
	BlobDeleteQueue string
}

var WorkerKey = &WorkerKeyStruct{
	BlobDeleteQueue: "blob_delete_queue",
}
