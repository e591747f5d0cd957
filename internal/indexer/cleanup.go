package indexer

// cleanup cascade-deletes orphan dimension rows, then refreshes
// planner statistics and compacts the database file.
func (i *Indexer) cleanup() {
	if err := i.cat.DeleteOrphans(); err != nil {
		i.log.Warn("orphan cleanup failed", "err", err)
		return
	}
	if i.interrupted() {
		return
	}
	if err := i.cat.Analyze(); err != nil {
		i.log.Warn("analyze failed", "err", err)
	}
	if i.interrupted() {
		return
	}
	if err := i.cat.Vacuum(); err != nil {
		i.log.Warn("vacuum failed", "err", err)
	}
}

// optimize recomputes the dense sort_order columns so UI sorts are
// O(1) at query time.
func (i *Indexer) optimize() {
	cancelled := i.interrupted

	for _, table := range []string{"genres", "artists", "albums"} {
		if err := i.cat.OptimizeDimension(table, cancelled); err != nil {
			i.log.Warn("optimize failed", "table", table, "err", err)
		}
		if i.interrupted() {
			return
		}
	}
	if err := i.cat.OptimizeMetaValues(cancelled); err != nil {
		i.log.Warn("optimize failed", "table", "meta_values", "err", err)
	}
	if i.interrupted() {
		return
	}
	if err := i.cat.OptimizeTracks(cancelled); err != nil {
		i.log.Warn("optimize failed", "table", "tracks", "err", err)
	}
}
