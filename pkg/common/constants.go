package common

const (
	RedisStreamContentIngested   = "content.ingested"
	RedisStreamNarrativeDetected = "narrative.detected"

	RedisStreamGroup    = "pipeline-group"
	RedisStreamConsumer = "pipeline-consumer"
)
