package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vitalsync-import/internal/domain"
	"vitalsync-import/internal/repository"
	"vitalsync-import/internal/store"
	"vitalsync-import/internal/takeout"
)

// conflictSampleLimit 结果里冲突样本的上界（全量在 metric_conflicts 表）
const conflictSampleLimit = 25

// ImportArchiveRequest 导入请求
type ImportArchiveRequest struct {
	Archive   []byte           // Takeout ZIP 原始字节
	FileName  string           // 原始文件名（仅审计）
	WriteMode domain.WriteMode // 空值按 fill_missing 处理
	Timezone  string           // 报告用时区标签，不参与计算
}

// ImportService Takeout 归档导入服务接口
type ImportService interface {
	// ImportArchive 执行一次完整导入：去重 → 解压 → 定位 → 分类 → 解析 →
	// 聚合 → 落库 → 诊断归档 → 级联重算
	ImportArchive(ctx context.Context, req ImportArchiveRequest) (*domain.TakeoutImportResult, error)

	// GetResult 按 importID 读取结果快照（仅当配置了 KV）
	GetResult(ctx context.Context, importID string) (*domain.TakeoutImportResult, error)

	// BuildAuditWorkbook 生成导入审计 Excel（冲突表 + 按日来源表，含区间相邻日）
	BuildAuditWorkbook(ctx context.Context, result *domain.TakeoutImportResult) ([]byte, error)
}

// importService 实现
type importService struct {
	importLogRepo repository.ImportLogRepository
	metricsRepo   repository.DailyMetricsRepository
	diagRepo      repository.DiagnosticsRepository
	kv            store.KV            // 可选：结果快照
	metrics       MetricsRecomputer   // 可选：指标重算
	readiness     ReadinessRecomputer // 可选：就绪度重算
	logger        *zap.Logger
}

// NewImportService 创建 ImportService 实例
// kv / metrics / readiness 均可为 nil（对应能力关闭）
func NewImportService(
	importLogRepo repository.ImportLogRepository,
	metricsRepo repository.DailyMetricsRepository,
	diagRepo repository.DiagnosticsRepository,
	kv store.KV,
	metrics MetricsRecomputer,
	readiness ReadinessRecomputer,
	logger *zap.Logger,
) ImportService {
	return &importService{
		importLogRepo: importLogRepo,
		metricsRepo:   metricsRepo,
		diagRepo:      diagRepo,
		kv:            kv,
		metrics:       metrics,
		readiness:     readiness,
		logger:        logger,
	}
}

var _ ImportService = (*importService)(nil)

// ImportArchive 执行一次完整导入
func (s *importService) ImportArchive(ctx context.Context, req ImportArchiveRequest) (*domain.TakeoutImportResult, error) {
	mode := req.WriteMode
	if mode == "" {
		mode = domain.WriteModeFillMissing
	}

	// ========== 1. 内容哈希去重（任何解析发生之前） ==========
	sum := sha256.Sum256(req.Archive)
	contentHash := hex.EncodeToString(sum[:])

	existing, err := s.importLogRepo.FindByHash(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("Duplicate archive rejected",
			zap.String("content_hash", contentHash),
			zap.String("prior_import_id", existing.ImportID),
		)
		return &domain.TakeoutImportResult{
			ImportID:        existing.ImportID,
			Status:          domain.ImportStatusDuplicate,
			TimezoneUsed:    req.Timezone,
			SleepBucketRule: takeout.SleepBucketRule,
			ParseDetails:    emptyParseDetails(),
		}, nil
	}

	rec := &domain.ImportRecord{
		ImportID:     uuid.New().String(),
		ContentHash:  contentHash,
		FileName:     req.FileName,
		TimezoneUsed: req.Timezone,
		WriteMode:    mode,
		CreatedAt:    time.Now().UTC(),
	}

	// ========== 2. 解压 + 定位 Fitbit 根 ==========
	entries := takeout.ExtractArchive(req.Archive)
	root, found := takeout.LocateFitbitRoot(entries)
	if !found {
		s.logger.Warn("No Fitbit root in archive",
			zap.String("file_name", req.FileName),
			zap.Int("entries", len(entries)),
		)
		rec.Status = domain.ImportStatusNoFitbitRoot
		if err := s.importLogRepo.Create(ctx, rec); err != nil {
			return nil, err
		}
		return s.finish(ctx, &domain.TakeoutImportResult{
			ImportID:        rec.ImportID,
			Status:          domain.ImportStatusNoFitbitRoot,
			FilesSeen:       len(entries),
			TimezoneUsed:    req.Timezone,
			SleepBucketRule: takeout.SleepBucketRule,
			ParseDetails:    emptyParseDetails(),
		}), nil
	}

	// ========== 3. 分类 + 解析 + 聚合 ==========
	csvFiles, jsonFiles := takeout.Classify(root, entries)
	agg := takeout.NewAggregation(req.Timezone)
	filesParsed := takeout.RunParsers(csvFiles, jsonFiles, agg)
	res := agg.Finalize()

	// MinDate 为空即没有任何非空桶：条目全被跳过，或解析出的桶全为空
	// （如心率区间 JSON 里没有一个可识别的区间键）。这两种情况都按无数据处理
	if res.MinDate == "" {
		s.logger.Info("Archive parsed but produced no day buckets",
			zap.String("import_id", rec.ImportID),
			zap.Int("files_seen", len(entries)),
			zap.Int("files_parsed", filesParsed),
		)
		rec.Status = domain.ImportStatusNoData
		if err := s.importLogRepo.Create(ctx, rec); err != nil {
			return nil, err
		}
		return s.finish(ctx, &domain.TakeoutImportResult{
			ImportID:        rec.ImportID,
			Status:          domain.ImportStatusNoData,
			FilesSeen:       len(entries),
			FilesParsed:     filesParsed,
			RowsSkipped:     agg.RowsSkipped,
			ParseDetails:    agg.ParseDetails(),
			FilePatterns:    filePatterns(csvFiles, jsonFiles),
			TimezoneUsed:    req.Timezone,
			SleepBucketRule: takeout.SleepBucketRule,
		}), nil
	}

	// ========== 4. 落库（import_log 先建：诊断表外键指向它） ==========
	rec.Status = domain.ImportStatusOK
	if err := s.importLogRepo.Create(ctx, rec); err != nil {
		return nil, err
	}

	release, err := s.metricsRepo.AcquireImportLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	existingDates, err := s.metricsRepo.ExistingDates(ctx, res.MinDate, res.MaxDate)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(res.Buckets))
	for d := range res.Buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	inserted, updated, skipped := 0, 0, 0
	for _, date := range dates {
		bucket := res.Buckets[date]
		if bucket.IsEmpty() {
			skipped++
			continue
		}
		if err := s.metricsRepo.UpsertDay(ctx, date, bucket, mode); err != nil {
			return nil, err
		}
		if existingDates[date] {
			updated++
		} else {
			inserted++
		}
	}

	// ========== 5. 诊断归档 ==========
	for _, date := range agg.Diags.SortedDates() {
		if err := s.diagRepo.SaveDayDiagnostics(ctx, rec.ImportID, agg.Diags.Days[date]); err != nil {
			return nil, err
		}
	}
	if err := s.diagRepo.SaveConflicts(ctx, rec.ImportID, res.Conflicts); err != nil {
		return nil, err
	}

	rec.DaysInserted = inserted
	rec.DaysUpdated = updated
	if err := s.importLogRepo.Update(ctx, rec); err != nil {
		return nil, err
	}

	// ========== 6. 组装结果 ==========
	result := &domain.TakeoutImportResult{
		ImportID:          rec.ImportID,
		Status:            domain.ImportStatusOK,
		DateRange:         &domain.DateRange{Start: res.MinDate, End: res.MaxDate},
		FilesSeen:         len(entries),
		FilesParsed:       filesParsed,
		DaysInserted:      inserted,
		DaysUpdated:       updated,
		RowsSkipped:       agg.RowsSkipped + skipped,
		ParseDetails:      agg.ParseDetails(),
		FilePatterns:      filePatterns(csvFiles, jsonFiles),
		ConflictsDetected: sampleConflicts(res.Conflicts),
		RowsPerDay:        agg.RowsPerDayStats(),
		TimezoneUsed:      req.Timezone,
		SleepBucketRule:   takeout.SleepBucketRule,
		ImportSummary:     res.Summary,
	}

	s.logger.Info("Import complete",
		zap.String("import_id", rec.ImportID),
		zap.String("write_mode", string(mode)),
		zap.String("date_min", res.MinDate),
		zap.String("date_max", res.MaxDate),
		zap.Int("days_inserted", inserted),
		zap.Int("days_updated", updated),
		zap.Int("conflicts", len(res.Conflicts)),
	)

	// ========== 7. 级联重算 ==========
	triggerRecompute(ctx, s.logger, s.metrics, s.readiness,
		domain.DateRange{Start: res.MinDate, End: res.MaxDate}, res.Buckets)

	return s.finish(ctx, result), nil
}

// GetResult 按 importID 读取结果快照
func (s *importService) GetResult(ctx context.Context, importID string) (*domain.TakeoutImportResult, error) {
	if s.kv == nil {
		return nil, store.ErrMiss
	}
	return s.kv.GetResult(ctx, importID)
}

// finish 保存结果快照（尽力而为：KV 故障不影响导入结果）
func (s *importService) finish(ctx context.Context, result *domain.TakeoutImportResult) *domain.TakeoutImportResult {
	if s.kv != nil {
		if err := s.kv.SaveResult(ctx, result); err != nil {
			s.logger.Warn("Failed to save result snapshot",
				zap.String("import_id", result.ImportID),
				zap.Error(err),
			)
		}
	}
	return result
}

// filePatterns 收集本次命中的文件名 glob（去重、保持分类顺序）
func filePatterns(csvFiles, jsonFiles []takeout.ClassifiedFile) []string {
	seen := make(map[string]bool)
	var patterns []string
	for _, f := range csvFiles {
		if !seen[f.Pattern] {
			seen[f.Pattern] = true
			patterns = append(patterns, f.Pattern)
		}
	}
	for _, f := range jsonFiles {
		if !seen[f.Pattern] {
			seen[f.Pattern] = true
			patterns = append(patterns, f.Pattern)
		}
	}
	return patterns
}

// sampleConflicts 取前 conflictSampleLimit 条作为结果样本
func sampleConflicts(conflicts []domain.ConflictEntry) []domain.ConflictEntry {
	if len(conflicts) <= conflictSampleLimit {
		return conflicts
	}
	return conflicts[:conflictSampleLimit]
}

// emptyParseDetails 十个槽位全零的 parse_details（短路路径也保持结果形状稳定）
func emptyParseDetails() map[string]int {
	details := make(map[string]int, len(takeout.Slots))
	for _, slot := range takeout.Slots {
		details[slot] = 0
	}
	return details
}
