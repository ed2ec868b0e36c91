// Package gamerec 是一个游戏个性化推荐引擎（检索 + 排序）。
//
// 设计要点：
// - Pipeline-first: 排序逻辑通过 Node 串联（Score → Filter → Diversity → TopN）
// - 召回分层: 热门 / 内容 / 向量三路召回，按用户交互量自动选择并互为降级
// - 索引快照: ANN 索引不可变快照 + 原子指针切换，重建不阻塞查询
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测
package gamerec

import "github.com/gamerec/gamerec/pipeline"

// 轻量 facade：便于用户直接 import 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindRank   = pipeline.KindRank
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)
