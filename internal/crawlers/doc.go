// Package crawlers 提供页面获取和联系人页面提取功能
//
// # 概述
//
// crawlers包把"URL -> 文档树"和"文档树 -> 原始片段"两件事分开:
// Fetcher负责获取,ListingExtractor/DetailExtractor负责从goquery文档中取数据。
// 获取支持静态(Colly)和动态(go-rod)两种模式,提取器对两者一视同仁。
//
// # 核心组件
//
// ## StaticFetcher
//
// 基于Colly的静态获取器。每次Fetch克隆一个collector,共享HTTP客户端,
// 非2xx响应转换为*models.FetchError, br/deflate响应自动解压。
//
//	fetcher := NewStaticFetcher(config, workers, headerProvider)
//	doc, err := fetcher.Fetch(ctx, "https://www.amocrm.ru/partners/")
//
// ## DynamicFetcher
//
// 基于go-rod的动态获取器,页面渲染完成后取HTML。
// 集成PagePool,标签页按需创建,数量不超过worker数;请求头在建标签页时设置一次。
//
//	fetcher, err := NewDynamicFetcher(config, workers, headerProvider)
//	if err != nil { /* 处理错误 */ }
//	defer fetcher.Close()
//
// ## ListingExtractor / DetailExtractor
//
// ListingExtractor 读取列表容器直接子元素的href,解析为绝对URL。
// DetailExtractor 对联系人容器的每个 p/a/span 直接子元素执行策略链:
//
//	span a span  ->  span span  ->  a  ->  节点本身
//
// 第一个返回非nil文本的策略生效。源站点的嵌套深度不一致,所以从深到浅尝试。
//
// ## ResourceMonitor (资源监控器)
//
// 读取CPU核数和可用内存(gopsutil),计算建议的并发数:
// min(32, CPU数+4), 再受 可用内存/单worker内存 和 max_workers_limit 约束。
//
//	monitor := NewResourceMonitor(ResourceConfigForMode(models.ModeStatic, 64))
//	workers := monitor.RecommendWorkers()
//
// # 配置参数 (configs/config.yaml)
//
//	crawl:
//	  mode: static                  # static | dynamic
//	  max_workers: 0                # 0 表示自动计算
//	  max_workers_limit: 64
//	  request_timeout: 30           # 单页超时(秒)
//	  listing_selector: div.partners-list__container
//	  detail_selector: div.partners-detail__contacts
//
// # 并发安全
//
//   - StaticFetcher: 每次Fetch使用独立的collector克隆
//   - PagePool: 空闲channel + 名额计数(sync.Mutex),出错的标签页销毁后重建
//   - 提取器: 无状态,可共享
package crawlers
