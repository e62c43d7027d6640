package buildvars

import (
	"encoding/json"
	"io"
	"runtime/debug"
)

type Vars struct {
	Version   string `json:",omitempty"`
	GitCommit string `json:",omitempty"`
	BuildDate string `json:",omitempty"`
}

type BuildInfo struct {
	BuildInfo *debug.BuildInfo `json:",omitempty"`
	BuildVars *Vars            `json:",omitempty"`
}

func GetBuildInfo() BuildInfo {
	result := BuildInfo{
		BuildVars: &Vars{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDateString,
		},
	}
	if *result.BuildVars == (Vars{}) {
		result.BuildVars = nil
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return result
	}

	result.BuildInfo = bi
	return result
}

func PrintBuildInfo(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", " ")
	return enc.Encode(GetBuildInfo())
}
