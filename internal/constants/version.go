package constants

// Version и Commit подставляются при сборке:
//
//	go build -ldflags "-X github.com/Kargones/aihub-smoke/internal/constants.Version=1.2.0"
var (
	Version = "dev"
	Commit  = "none"
)
