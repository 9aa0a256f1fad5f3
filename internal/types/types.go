package types

import "time"

// TimeRange is a span of the source video in seconds.
type TimeRange struct {
	Start float64 `json:"startTime"`
	End   float64 `json:"endTime"`
}

func (r TimeRange) Duration() float64 { return r.End - r.Start }

// Valid reports whether the range is non-negative and non-empty.
func (r TimeRange) Valid() bool { return r.Start >= 0 && r.End > r.Start }

type CandidateMoment struct {
	TimeRange
	Score         int    `json:"viralScore"`
	Justification string `json:"reason"`
	SourceText    string `json:"text"`
}

// RankedMoment is the raw oracle answer before validation.
type RankedMoment struct {
	Rank   int     `json:"rank" jsonschema_description:"1 = strongest viral potential"`
	Start  float64 `json:"start" jsonschema_description:"Start time in seconds"`
	End    float64 `json:"end" jsonschema_description:"End time in seconds"`
	Reason string  `json:"reason" jsonschema_description:"Why this segment is likely to go viral, in the transcript language"`
}

type Transcript struct {
	Segments []TranscriptSegment `json:"segments"`
	Text     string              `json:"text"`
}

type TranscriptSegment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
}

type Word struct {
	Text       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

type MediaInfo struct {
	ContainerFormat string       `json:"containerFormat"`
	DurationSeconds float64      `json:"durationSeconds"`
	SizeBytes       int64        `json:"sizeBytes"`
	Bitrate         int64        `json:"bitrate"`
	VideoStream     *VideoStream `json:"videoStream,omitempty"`
}

type VideoStream struct {
	Codec     string `json:"codec"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	FrameRate string `json:"frameRate"`
}

const (
	FormatVertical   = "vertical"
	ResolutionShort  = "1080x1920"
	DefaultCodecName = "h264"
)

type ProcessedSegment struct {
	Ordinal       int    `json:"id"`
	DurationLabel string `json:"duration"`
	Score         int    `json:"viralScore"`
	ThumbnailURL  string `json:"thumbnail"`
	VideoURL      string `json:"videoUrl"`
	TimeRange
	Justification string       `json:"reason,omitempty"`
	FileMetadata  FileMetadata `json:"metadata"`
}

type FileMetadata struct {
	EncodedAt  time.Time `json:"processingTime"`
	Region     string    `json:"awsRegion,omitempty"`
	Format     string    `json:"format"`
	Resolution string    `json:"resolution"`
	ByteSize   int64     `json:"fileSize"`
	Codec      string    `json:"codec"`
}

// JobRequest is what a front layer hands to the core.
type JobRequest struct {
	VideoBytes               []byte
	ContentType              string
	RequestedDurationSeconds float64
	UserID                   string
}

type JobResponse struct {
	Segments []ProcessedSegment `json:"shorts"`
	// SourceURL is where the uploaded source ended up, when the job uploaded one.
	SourceURL string `json:"sourceUrl,omitempty"`
}

type JobState string

const (
	StateCreated      JobState = "CREATED"
	StateFetching     JobState = "FETCHING"
	StateProbing      JobState = "PROBING"
	StateTransforming JobState = "TRANSFORMING"
	StateUploading    JobState = "UPLOADING"
	StateDone         JobState = "DONE"
	StateFailed       JobState = "FAILED"
)

// Manifest is the on-disk record written by the CLI run command.
type Manifest struct {
	Input    string             `json:"input"`
	Source   string             `json:"source"`
	Duration float64            `json:"duration"`
	Clips    []ProcessedSegment `json:"clips"`
}
