package composer

// Version is the engine version reported by the CLI and tracing resource.
const Version = "0.3.0"
