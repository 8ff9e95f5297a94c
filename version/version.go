package version

// Version is the Major.Minor.Patch tag from git, set at link time with
// -ldflags "-X github.com/jake-scott/gira-x1/version.Version=...", or 'dev'
var Version string = "dev"
