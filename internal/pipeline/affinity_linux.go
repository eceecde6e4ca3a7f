//go:build linux

package pipeline

/*
certfisk — phishing domain detection over Certificate Transparency streams
Copyright (C) 2026  certfisk authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// setAffinity pins the calling worker goroutine's OS thread to one CPU core.
// Failure is logged and ignored; affinity is an optimization, not a requirement.
func setAffinity(workerID, cpu int) {
	runtime.LockOSThread()

	var cpuSet unix.CPUSet
	cpuSet.Zero()
	cpuSet.Set(cpu)

	if err := unix.SchedSetaffinity(unix.Gettid(), &cpuSet); err != nil {
		logrus.Debugf("Worker %d: failed to set CPU affinity to core %d: %v", workerID, cpu, err)
	}
}
