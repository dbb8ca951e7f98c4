package ooo

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/depgraph"
)

// commit retires completed instructions from the head of the ROB in order.
func (s *Scheduler) commit() {
	for i := 0; i < s.config.CommitWidth && len(s.rob) > 0; i++ {
		d := s.rob[0]
		if !d.Completed {
			return
		}

		s.rob = s.rob[1:]
		s.renamer.Commit(d)
		s.stats.Instructions++

		if d.Inst.IsBranch() {
			s.stats.Branches++
			s.predictor.Update(d.Inst.PC, d.Inst.Taken, d.Inst.Target, !d.Mispredicted)
		}
	}
}

// complete counts down executing instructions and writes back the ones that
// finish this cycle, oldest first.
func (s *Scheduler) complete() {
	var done []*insts.DynInst

	still := s.executing[:0]
	for _, d := range s.executing {
		d.Remaining--
		if d.Remaining == 0 {
			done = append(done, d)
		} else {
			still = append(still, d)
		}
	}
	s.executing = still

	slices.SortFunc(done, bySeqNum)

	for _, d := range done {
		// An older mispredicted branch finishing this cycle may have
		// squashed d already.
		if d.Squashed {
			continue
		}
		s.writeback(d)
	}
}

func (s *Scheduler) writeback(d *insts.DynInst) {
	d.Completed = true

	if d.PhysDst >= 0 {
		s.renamer.MarkReady(d.PhysDst)
		s.deps.ClearInst(d.PhysDst)
		s.wakeup(d.PhysDst)
	}

	if d.Mispredicted {
		s.squashAfter(d)
	}
}

// wakeup resolves every outstanding operand on reg. A consumer that read reg
// twice is returned by the tracker twice.
func (s *Scheduler) wakeup(reg int) {
	for {
		consumer, ok := s.deps.Pop(reg)
		if !ok {
			return
		}

		if !consumer.Resolve(reg) {
			panic(fmt.Sprintf("ooo: %v woken on p%d it was not waiting for", consumer, reg))
		}
		s.stats.Wakeups++

		if consumer.Ready() {
			s.ready = append(s.ready, consumer)
		}
	}
}

// issue starts up to IssueWidth ready instructions, oldest first. Issued
// instructions leave the reservation stations and the dependency tracker.
func (s *Scheduler) issue() {
	slices.SortFunc(s.ready, bySeqNum)

	n := min(s.config.IssueWidth, len(s.ready))
	for _, d := range s.ready[:n] {
		s.deps.Retract(d)
		s.stationsUsed--

		d.Issued = true
		d.Remaining = s.executeLatency(d)
		s.executing = append(s.executing, d)
		s.stats.Issued++
	}

	s.ready = slices.Delete(s.ready, 0, n)
}

func (s *Scheduler) executeLatency(d *insts.DynInst) uint64 {
	var lat uint64
	if s.dcache != nil && d.Inst.IsMemory() {
		lat = s.dcache.Access(d.Inst.Addr, d.Inst.Op == insts.OpStore).Latency
	} else {
		lat = s.latencyTable.GetLatency(d.Inst)
	}

	return max(lat, 1)
}

// dispatch renames instructions from the fetch queue in order and places
// them in the ROB and the reservation stations. It stops at the first
// instruction that cannot get a ROB entry, a station or a register.
func (s *Scheduler) dispatch() {
	for i := 0; i < s.config.DispatchWidth && len(s.fetchQueue) > 0; i++ {
		d := s.fetchQueue[0]

		if len(s.rob) >= s.config.ROBSize {
			s.stats.ROBFullStalls++
			return
		}
		if s.stationsUsed >= s.config.NumReservationStations {
			s.stats.StationFullStalls++
			return
		}
		if err := s.renamer.Rename(d); err != nil {
			s.stats.RegisterFullStalls++
			return
		}

		s.fetchQueue = s.fetchQueue[1:]
		s.rob = append(s.rob, d)
		s.stationsUsed++
		d.Dispatched = true
		s.stats.Dispatched++

		for _, src := range d.PhysSrcs {
			if s.renamer.IsReady(src) {
				continue
			}
			s.deps.Insert(src, d)
			d.Waiting = append(d.Waiting, src)
		}

		if d.PhysDst >= 0 {
			s.deps.SetInst(d.PhysDst, d)
		}

		if d.Ready() {
			s.ready = append(s.ready, d)
		}
	}
}

// fetch moves trace entries into the fetch queue. A branch predicted taken
// ends the fetch group. A branch whose predicted direction or target
// disagrees with the trace is marked, and the entries after it are fetched
// as the wrong path until the branch resolves.
func (s *Scheduler) fetch() {
	if s.fetchStall > 0 {
		s.fetchStall--
		s.stats.FetchStallCycles++
		return
	}

	for i := 0; i < s.config.FetchWidth; i++ {
		if s.fetchIdx >= len(s.trace) ||
			len(s.fetchQueue) >= s.config.FetchQueueSize {
			return
		}

		inst := &s.trace[s.fetchIdx]
		d := insts.NewDynInst(s.nextSeq, s.fetchIdx, inst)
		s.nextSeq++
		s.fetchIdx++
		s.fetchQueue = append(s.fetchQueue, d)
		s.stats.Fetched++

		if !inst.IsBranch() {
			continue
		}

		pred := s.predictor.Predict(inst.PC)
		d.Mispredicted = !pred.Matches(inst.Taken, inst.Target)
		if pred.Taken {
			return
		}
	}
}

// squashAfter discards everything younger than branch and redirects fetch
// to the entry after it.
func (s *Scheduler) squashAfter(branch *insts.DynInst) {
	pos := slices.Index(s.rob, branch)
	if pos < 0 {
		panic(fmt.Sprintf("ooo: resolving %v which is not in the ROB", branch))
	}

	for i := len(s.rob) - 1; i > pos; i-- {
		s.squash(s.rob[i])
	}
	s.rob = s.rob[:pos+1]

	for _, d := range s.fetchQueue {
		d.Squashed = true
		s.stats.Squashed++
	}
	s.fetchQueue = s.fetchQueue[:0]

	s.ready = slices.DeleteFunc(s.ready, isSquashed)
	s.executing = slices.DeleteFunc(s.executing, isSquashed)

	s.fetchIdx = branch.TraceIndex + 1
	s.fetchStall = s.latencyTable.MispredictPenalty()
	s.stats.Flushes++
}

// squash discards one dispatched instruction. Instructions must be squashed
// youngest first so the rename rollback restores the right mappings.
func (s *Scheduler) squash(d *insts.DynInst) {
	d.Squashed = true

	if !d.Issued {
		if s.deps.RetractPolicy() == depgraph.RetractKeepCounters {
			for _, reg := range d.WaitingRegs() {
				s.deps.Remove(reg, d)
			}
		}
		s.stationsUsed--
	}

	s.deps.Retract(d)
	s.renamer.Rollback(d)
	s.stats.Squashed++
}

func bySeqNum(a, b *insts.DynInst) int {
	return cmp.Compare(a.SeqNum, b.SeqNum)
}

func isSquashed(d *insts.DynInst) bool {
	return d.Squashed
}
