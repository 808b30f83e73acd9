//go:build !unix

package speech

import "os"

func pauseProcess(*os.Process) error  { return ErrPauseUnsupported }
func resumeProcess(*os.Process) error { return ErrPauseUnsupported }
